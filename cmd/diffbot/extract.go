package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/byteowlz/diffbot/internal/seeds"
	"github.com/byteowlz/diffbot/pkg/diffbot"
)

var (
	urlFile       string
	feeds         []string
	concurrency   int
	failFast      bool
	fields        string
	serverTimeout int
	callback      string
	paging        bool
	maxTags       int
	tagConfidence float64
	discussion    bool
	mode          string
	fallback      string
	maxPages      int
	delay         float64
)

var extractCmd = &cobra.Command{
	Use:   "extract <article|analyze|discussion|image|product|video> [urls...]",
	Short: "Run a single-page extraction API on each URL",
	Long: `Runs one extraction API per URL. URLs come from arguments, --file, --feed
or piped stdin. Results are rendered with --format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&urlFile, "file", "f", "", "read URLs from file (one per line)")
	f.StringSliceVar(&feeds, "feed", nil, "RSS/Atom feed whose item links are extracted")
	f.IntVarP(&concurrency, "concurrency", "c", 0, "max concurrent requests (default from config)")
	f.BoolVar(&failFast, "fail-fast", false, "stop on first error")
	f.Float64Var(&delay, "delay", 0, "delay in seconds between starting requests")
	f.StringVar(&separator, "separator", "", "output separator for multiple results")
	f.BoolVar(&nullSeparator, "null-separator", false, "use null byte separator (for xargs -0)")

	f.StringVar(&fields, "fields", "", "comma-separated optional fields to return")
	f.IntVar(&serverTimeout, "server-timeout", 0, "server-side extraction timeout in milliseconds")
	f.StringVar(&callback, "callback", "", "JSONP callback name")
	f.BoolVar(&paging, "paging", true, "article: follow multi-page articles")
	f.IntVar(&maxTags, "max-tags", 0, "article: maximum number of tags")
	f.Float64Var(&tagConfidence, "tag-confidence", 0, "article: minimum tag confidence")
	f.BoolVar(&discussion, "discussion", true, "article/analyze/product: extract comments")
	f.StringVar(&mode, "mode", "", "analyze: force a page type")
	f.StringVar(&fallback, "fallback", "", "analyze: API used when the page type is unknown")
	f.IntVar(&maxPages, "max-pages", 0, "discussion: maximum pages to follow")
}

// extractParams builds the argument set for apiType from the flags that
// were set explicitly.
func extractParams(cmd *cobra.Command, apiType diffbot.ResultType) (diffbot.Params, error) {
	changed := cmd.Flags().Changed
	common := diffbot.CommonArgs{}
	if changed("fields") {
		common.Fields = diffbot.String(fields)
	}
	if changed("server-timeout") {
		common.Timeout = diffbot.Int(serverTimeout)
	}
	if changed("callback") {
		common.Callback = diffbot.String(callback)
	}

	var disc *bool
	if changed("discussion") {
		disc = diffbot.Bool(discussion)
	}

	switch apiType {
	case diffbot.TypeArticle:
		args := diffbot.ArticleArgs{CommonArgs: common, Discussion: disc}
		if changed("paging") {
			args.Paging = diffbot.Bool(paging)
		}
		if changed("max-tags") {
			args.MaxTags = diffbot.Int(maxTags)
		}
		if changed("tag-confidence") {
			args.TagConfidence = diffbot.Float(tagConfidence)
		}
		return args.Params(), nil
	case diffbot.TypeAnalyze:
		args := diffbot.AnalyzeArgs{CommonArgs: common, Discussion: disc}
		if changed("mode") {
			args.Mode = diffbot.String(mode)
		}
		if changed("fallback") {
			args.Fallback = diffbot.String(fallback)
		}
		return args.Params(), nil
	case diffbot.TypeDiscussion:
		args := diffbot.DiscussionArgs{CommonArgs: common}
		if changed("max-pages") {
			args.MaxPages = diffbot.Int(maxPages)
		}
		return args.Params(), nil
	case diffbot.TypeImage:
		return diffbot.ImageArgs{CommonArgs: common}.Params(), nil
	case diffbot.TypeProduct:
		return diffbot.ProductArgs{CommonArgs: common, Discussion: disc}.Params(), nil
	case diffbot.TypeVideo:
		return diffbot.VideoArgs{CommonArgs: common}.Params(), nil
	}
	return nil, fmt.Errorf("unknown extraction API %q", apiType)
}

func runExtract(cmd *cobra.Command, args []string) error {
	apiType := diffbot.ResultType(args[0])
	params, err := extractParams(cmd, apiType)
	if err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}
	renderer, format, err := newRenderer()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("concurrency") {
		concurrency = cfg.Parallel.MaxConcurrency
	}
	if !cmd.Flags().Changed("fail-fast") {
		failFast = cfg.Parallel.FailFast
	}

	ctx := cmd.Context()
	collector := &seeds.Collector{File: urlFile, Feeds: feeds, Stdin: seeds.PipedStdin()}
	urls, err := collector.Collect(ctx, args[1:])
	if err != nil {
		return exitError(ExitInvalidInput, "failed to collect URLs: %v", err)
	}
	if len(urls) == 0 {
		return exitError(ExitInvalidInput, "no URLs provided")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	fetcher := client.Single()
	logger.Info("extracting", "api", string(apiType), "urls", len(urls), "concurrency", concurrency)

	results := make([][]document, len(urls))
	var (
		mu       sync.Mutex
		firstErr error
		failed   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, u := range urls {
		if i > 0 && delay > 0 {
			select {
			case <-time.After(time.Duration(delay * float64(time.Second))):
			case <-gctx.Done():
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			exts, err := fetcher.FetchExtractors(gctx, apiType, u, params)
			if err == nil {
				results[i], err = renderAll(renderer, format, u, exts)
			}
			if err != nil {
				logger.Warn("extraction failed", "url", u, "error", err)
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				info("Error processing %s: %v", u, err)
				if failFast {
					return err
				}
			}
			return nil
		})
	}
	groupErr := g.Wait()

	var docs []document
	for _, r := range results {
		docs = append(docs, r...)
	}
	if err := writeDocuments(docs, format); err != nil {
		return err
	}

	if groupErr != nil {
		return &exitErr{code: exitCode(groupErr), msg: groupErr.Error()}
	}
	if firstErr != nil {
		logger.Info("extraction finished with errors", "failed", failed, "total", len(urls))
		return &exitErr{code: exitCode(firstErr), msg: firstErr.Error()}
	}
	return nil
}
