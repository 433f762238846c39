// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// FormatFor returns the feed format for path: explicit when set, otherwise
// inferred from the extension, defaulting to JSON.
func FormatFor(path string, explicit types.FeedFormat) (types.FeedFormat, error) {
	if explicit != "" {
		switch explicit {
		case types.FeedJSON, types.FeedJSONLines, types.FeedYAML, types.FeedSQLite:
			return explicit, nil
		case "jsonl":
			return types.FeedJSONLines, nil
		default:
			return "", fmt.Errorf("unsupported feed format %q: use json, jsonlines, yaml, or sqlite", explicit)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".jsonlines", ".ndjson":
		return types.FeedJSONLines, nil
	case ".yaml", ".yml":
		return types.FeedYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return types.FeedSQLite, nil
	default:
		return types.FeedJSON, nil
	}
}

// WriteFeed stores records at path in format. With no records and
// storeEmpty false nothing is written and WriteFeed reports false. An
// existing file is replaced.
func WriteFeed(ctx context.Context, path string, format types.FeedFormat, records []types.LinkRecord, storeEmpty bool) (bool, error) {
	if len(records) == 0 && !storeEmpty {
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if format == types.FeedSQLite {
		if err := writeSQLite(ctx, path, records); err != nil {
			return false, err
		}
		return true, nil
	}

	var encode func(io.Writer, []types.LinkRecord) error
	switch format {
	case types.FeedJSON, "":
		encode = encodeJSON
	case types.FeedJSONLines:
		encode = encodeJSONLines
	case types.FeedYAML:
		encode = encodeYAML
	default:
		return false, fmt.Errorf("unsupported feed format %q", format)
	}
	if err := writeAtomic(path, func(w io.Writer) error { return encode(w, records) }); err != nil {
		return false, err
	}
	return true, nil
}

// encodeJSON writes one JSON array indented by four spaces, leaving
// non-ASCII and HTML characters unescaped.
func encodeJSON(w io.Writer, records []types.LinkRecord) error {
	if records == nil {
		records = []types.LinkRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}

func encodeJSONLines(w io.Writer, records []types.LinkRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func encodeYAML(w io.Writer, records []types.LinkRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

// writeAtomic writes through a temporary file next to path and renames it
// into place on success.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".feed-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	bw := bufio.NewWriter(tmpFile)
	writeErr := write(bw)
	if writeErr == nil {
		writeErr = bw.Flush()
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing feed: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

const linksSchema = `
CREATE TABLE links (
	id         INTEGER PRIMARY KEY,
	link       TEXT,
	text       TEXT,
	page       TEXT NOT NULL,
	scraped_at TEXT NOT NULL
);`

// writeSQLite replaces path with a fresh database holding one row per
// record in a links table. NULL link/text columns mirror nil fields.
func writeSQLite(ctx context.Context, path string, records []types.LinkRecord) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=DELETE")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, linksSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO links (link, text, page, scraped_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ts := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, nullable(r.Link), nullable(r.Text), r.Page, ts); err != nil {
			return fmt.Errorf("inserting link: %w", err)
		}
	}
	return tx.Commit()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
