// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfpage reports PDF page geometry and rotates pages a quarter turn.
// Parsing and writing are delegated to pdfcpu; this package only reads media
// boxes and rewires page dictionaries.
package pdfpage

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// ErrNoInput is returned when a PDF subcommand is invoked without paths.
var ErrNoInput = errors.New("Please provide the path to the PDF file(s) as command line argument(s).")

// Inspect reads every page's media box from the PDF at path.
func Inspect(path string) (types.FileInfo, error) {
	ctx, err := open(path)
	if err != nil {
		return types.FileInfo{}, err
	}
	fi := types.FileInfo{Path: path, Pages: make([]types.PageInfo, 0, ctx.PageCount)}
	for nr := 1; nr <= ctx.PageCount; nr++ {
		p, err := pageInfo(ctx, nr)
		if err != nil {
			return types.FileInfo{}, fmt.Errorf("%s: %w", path, err)
		}
		fi.Pages = append(fi.Pages, p)
	}
	return fi, nil
}

// InfoFiles prints the page report for each path in order. The first file
// that fails aborts the remaining ones.
func InfoFiles(paths []string, w io.Writer) ([]types.FileInfo, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	out := make([]types.FileInfo, 0, len(paths))
	for _, path := range paths {
		fi, err := Inspect(path)
		if err != nil {
			return out, err
		}
		if w != nil {
			fmt.Fprintf(w, "Processing file: %s\n", path)
			for _, p := range fi.Pages {
				writePage(w, p)
			}
		}
		out = append(out, fi)
	}
	return out, nil
}

// writePage prints the per-page lines shared by pdf-info and pdf-rotate.
func writePage(w io.Writer, p types.PageInfo) {
	fmt.Fprintf(w, "  Processing page: %d\n", p.Index)
	fmt.Fprintf(w, "    Page size: %s x %s\n", FormatPoints(p.Width), FormatPoints(p.Height))
	if p.Orientation() == types.Landscape {
		fmt.Fprintln(w, "      Landscape mode")
	} else {
		fmt.Fprintln(w, "      Portrait mode")
	}
}

// FormatPoints renders a dimension with at least one fractional digit, so
// whole numbers read "200.0" and others keep their shortest form ("595.28").
func FormatPoints(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}

func open(path string) (*model.Context, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("counting pages in %s: %w", path, err)
	}
	return ctx, nil
}

// pageInfo returns the geometry of page nr (1-based), falling back to the
// media box inherited from the page tree.
func pageInfo(ctx *model.Context, nr int) (types.PageInfo, error) {
	_, _, inh, err := ctx.PageDict(nr, false)
	if err != nil {
		return types.PageInfo{}, fmt.Errorf("page %d: %w", nr, err)
	}
	if inh == nil || inh.MediaBox == nil {
		return types.PageInfo{}, fmt.Errorf("page %d: no media box", nr)
	}
	return types.PageInfo{
		Index:  nr - 1,
		Width:  inh.MediaBox.Width(),
		Height: inh.MediaBox.Height(),
	}, nil
}
