package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scriptkit/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect the links of a single web page",
	Long: `Scrape fetches one page and records every <a> element: its href, its
first text, and the page URL. Discovered links are not followed.

The feed format follows the output extension (.json, .jsonl, .yaml, .db) or
--format. An existing feed is replaced. When the page has no links nothing
is written unless --store-empty is set.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.String("url", scrape.DefaultSeedURL, "page to scrape")
	f.StringP("output", "o", scrape.DefaultOutput, "feed file")
	f.String("format", "", "feed format: json, jsonlines, yaml, or sqlite (default: from output extension)")
	f.String("user-agent", "", "User-Agent header (default scriptkit/<version>)")
	f.Duration("timeout", scrape.DefaultTimeout, "HTTP request timeout")
	f.Int("retries", 2, "retries on transient HTTP failures (0 disables)")
	f.Bool("store-empty", false, "write the feed even when no links were found")

	bindFlag("scrape.url", f.Lookup("url"))
	bindFlag("scrape.output", f.Lookup("output"))
	bindFlag("scrape.format", f.Lookup("format"))
	bindFlag("scrape.user_agent", f.Lookup("user-agent"))
	bindFlag("scrape.timeout", f.Lookup("timeout"))
	bindFlag("scrape.retries", f.Lookup("retries"))
	bindFlag("scrape.store_empty", f.Lookup("store-empty"))

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sc := cfg.Scrape
	if sc.UserAgent == "" {
		sc.UserAgent = userAgent()
	}

	format, err := scrape.FormatFor(sc.Output, sc.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := &http.Client{Timeout: sc.Timeout}
	records, err := scrape.New(client, sc, logger).Scrape(ctx)
	if err != nil {
		return err
	}

	wrote, err := scrape.WriteFeed(ctx, sc.Output, format, records, sc.StoreEmpty)
	if err != nil {
		return err
	}
	if !wrote {
		logger.Warn("no links scraped, feed not written", "url", sc.URL)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d link(s) in %s (%s)\n", len(records), sc.Output, format)
	return nil
}
