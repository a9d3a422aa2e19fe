package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

var (
	searchJob      string
	searchQuery    string
	searchNum      int
	searchStart    int
	searchRaw      bool
	searchComplete bool
	searchFamily   string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the indexed results of a job",
	RunE:  runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchJob, "name", "n", "", "job (collection) name")
	f.StringVar(&searchQuery, "query", "", "search query")
	f.IntVar(&searchNum, "num", 0, "number of results")
	f.IntVar(&searchStart, "start", 0, "offset of the first result")
	f.BoolVar(&searchRaw, "raw", false, "print the raw response as JSON")
	f.BoolVar(&searchComplete, "require-complete", false, "check the job has completed first")
	f.StringVar(&searchFamily, "family", string(diffbot.FamilyCrawl), "family of the job checked by --require-complete (bulk, crawl)")
	f.StringVar(&separator, "separator", "", "output separator for multiple results")
	searchCmd.MarkFlagRequired("name")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	family, err := parseFamily(searchFamily)
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	var opts diffbot.SearchArgs
	if cmd.Flags().Changed("num") {
		opts.Num = diffbot.Int(searchNum)
	}
	if cmd.Flags().Changed("start") {
		opts.Start = diffbot.Int(searchStart)
	}

	searcher := client.Searcher(searchJob)
	if searchComplete {
		op, err := client.Job(family, searchJob)
		if err != nil {
			return exitError(ExitInvalidInput, "%v", err)
		}
		searcher, err = op.FetchCompletedSearcher(ctx)
		if err != nil {
			return fail(err)
		}
	}

	if searchRaw {
		raw, err := searcher.FetchRawData(ctx, searchQuery, opts.Params())
		if err != nil {
			return fail(err)
		}
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return exitError(ExitNetworkError, "failed to encode response: %v", err)
		}
		return writeDocuments([]document{{key: searchJob, content: string(data) + "\n"}}, "json")
	}

	renderer, format, err := newRenderer()
	if err != nil {
		return err
	}
	exts, err := searcher.FetchExtractors(ctx, searchQuery, opts.Params())
	if err != nil {
		return fail(err)
	}
	logger.Info("search finished", "job", searchJob, "hits", len(exts))
	docs, err := renderAll(renderer, format, searchJob, exts)
	if err != nil {
		return exitError(ExitNetworkError, "%v", err)
	}
	return writeDocuments(docs, format)
}

// parseFamily validates a --family value.
func parseFamily(s string) (diffbot.Family, error) {
	family, err := diffbot.ParseFamily(s)
	if err != nil {
		return "", exitError(ExitInvalidInput, "--family: %v", err)
	}
	return family, nil
}
