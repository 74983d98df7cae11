// Package crawl implements the crawl command for one-off crawls from the terminal.
package crawl

import (
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/common"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/enrichment"
)

const titleWidth = 60

// Command returns the crawl command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a URL or a configured source",
	}
	cmd.AddCommand(urlCommand(), sourceCommand())
	return cmd
}

func urlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Preview what the pipeline extracts from a URL without saving anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			sc := common.NewSmartCrawler(deps.Config.Crawler, deps.Logger)
			result, err := sc.Crawl(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("crawl %s: %w", args[0], err)
			}

			RenderResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func sourceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "source <id>",
		Short: "Run a full crawl of a configured source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source id %q: %w", args[0], err)
			}

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			rt, err := common.NewRuntime(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			release, err := rt.Locker.Acquire(cmd.Context(), sourceID)
			if err != nil {
				return fmt.Errorf("source %d: %w", sourceID, err)
			}
			defer func() { _ = release(cmd.Context()) }()

			outcome := rt.Service.CrawlSource(cmd.Context(), sourceID)
			RenderOutcome(cmd.OutOrStdout(), outcome)
			if outcome.Log.Status == domain.CrawlStatusFailed {
				return fmt.Errorf("crawl of source %d failed", sourceID)
			}
			return nil
		},
	}
}

// RenderResult prints the classification verdict and the extracted articles.
func RenderResult(w io.Writer, result *domain.MultiArticleResult) {
	fmt.Fprintf(w, "%s: %s (confidence %.2f) %s\n",
		result.SourceURL, result.PageType, result.Analysis.Confidence, result.Analysis.Reason)
	fmt.Fprintf(w, "found %d, extracted %d\n", result.TotalFound, result.Processed)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Author", "Published", "Chars", "URL"})

	for i, a := range result.Articles {
		published := ""
		if a.PublishedAt != nil {
			published = a.PublishedAt.Format("2006-01-02")
		}
		t.AppendRow(table.Row{
			i + 1,
			enrichment.Truncate(a.Title, titleWidth),
			a.Author,
			published,
			utf8.RuneCountInString(a.Content),
			a.URL,
		})
	}

	t.Render()
}

// RenderOutcome prints the crawl log row of a finished crawl.
func RenderOutcome(w io.Writer, outcome *domain.CrawlOutcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Status", "Found", "Added", "Duration", "Error"})

	entry := outcome.Log
	message := ""
	if entry.ErrorMessage != nil {
		message = *entry.ErrorMessage
	}
	t.AppendRow(table.Row{
		entry.SourceID,
		entry.Status,
		entry.ArticlesFound,
		entry.ArticlesAdded,
		entry.CompletedAt.Sub(entry.StartedAt).Round(time.Millisecond).String(),
		message,
	})

	t.Render()
}
