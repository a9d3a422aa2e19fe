package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/byteowlz/diffbot/internal/poll"
	"github.com/byteowlz/diffbot/internal/seeds"
	"github.com/byteowlz/diffbot/pkg/diffbot"
)

// jobFlags holds the flags of one family's command tree.
type jobFlags struct {
	family diffbot.Family
	name   string

	// start
	file    string
	feeds   []string
	apiType string
	apiURL  string
	fields  string
	wait    bool

	// data
	dataFormat string
	raw        bool

	// wait
	interval int
	maxWait  int
}

func newJobCmd(family diffbot.Family) *cobra.Command {
	jf := &jobFlags{family: family}

	cmd := &cobra.Command{
		Use:   string(family),
		Short: fmt.Sprintf("Manage %s jobs", family),
	}
	cmd.PersistentFlags().StringVarP(&jf.name, "name", "n", "", "job name")

	start := &cobra.Command{
		Use:   "start [urls...]",
		Short: fmt.Sprintf("Create or update a %s job", family),
		RunE:  jf.runStart,
	}
	f := start.Flags()
	f.StringVarP(&jf.file, "file", "f", "", "read target URLs from file (one per line)")
	f.StringSliceVar(&jf.feeds, "feed", nil, "RSS/Atom feed whose item links become targets")
	f.StringVar(&jf.apiType, "api", string(diffbot.TypeAnalyze), "extraction API run on each page")
	f.StringVar(&jf.apiURL, "api-url", "", "full apiUrl (overrides --api and --fields)")
	f.StringVar(&jf.fields, "fields", "", "fields passed to the extraction API")
	f.BoolVar(&jf.wait, "wait", false, "wait for the job to complete")
	f.String("custom-headers", "", "custom headers sent with each page request")
	f.String("notify-email", "", "email notified when a round completes")
	f.String("notify-webhook", "", "webhook notified when a round completes")
	f.String("page-process-pattern", "", "process only pages whose html contains this")
	f.Float64("repeat", 0, "days between rounds")
	f.Int("max-rounds", 0, "maximum number of rounds")
	if family == diffbot.FamilyCrawl {
		f.String("url-crawl-pattern", "", "crawl only URLs containing one of these ||-separated strings")
		f.String("url-crawl-regex", "", "crawl only URLs matching this regex")
		f.String("url-process-pattern", "", "process only URLs containing one of these ||-separated strings")
		f.String("url-process-regex", "", "process only URLs matching this regex")
		f.Bool("obey-robots", true, "respect robots.txt")
		f.Bool("restrict-domain", true, "stay on the seed domains")
		f.Bool("use-proxies", false, "crawl through proxies")
		f.Bool("only-process-if-new", true, "skip pages processed in earlier rounds")
		f.Int("max-hops", 0, "maximum link depth from the seeds")
		f.Int("max-to-crawl", 0, "maximum pages to crawl")
		f.Int("max-to-process", 0, "maximum pages to process")
		f.Float64("crawl-delay", 0, "seconds between requests to a site")
	}
	start.Flags().IntVar(&jf.interval, "interval", 0, "seconds between status checks with --wait")
	start.Flags().IntVar(&jf.maxWait, "max-wait", 0, "give up waiting after N seconds")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the job status",
		RunE:  jf.runStatus,
	}

	data := &cobra.Command{
		Use:   "data",
		Short: "Download the results of a completed job",
		RunE:  jf.runData,
	}
	data.Flags().StringVar(&jf.dataFormat, "data-format", "json", "format requested from the service (json|csv)")
	data.Flags().BoolVar(&jf.raw, "raw", false, "print the raw objects as JSON instead of rendering them")
	data.Flags().StringVar(&separator, "separator", "", "output separator for multiple results")
	data.Flags().BoolVar(&nullSeparator, "null-separator", false, "use null byte separator (for xargs -0)")

	wait := &cobra.Command{
		Use:   "wait",
		Short: "Poll until the job completes",
		RunE:  jf.runWait,
	}
	wait.Flags().IntVar(&jf.interval, "interval", 0, "seconds between status checks (default from config)")
	wait.Flags().IntVar(&jf.maxWait, "max-wait", 0, "give up after N seconds (default from config, 0 = forever)")

	cmd.AddCommand(start, status, data, wait)
	for _, action := range []diffbot.Action{diffbot.ActionPause, diffbot.ActionResume, diffbot.ActionRestart, diffbot.ActionDelete} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(action),
			Short: fmt.Sprintf("Send %s to the job", action),
			RunE: func(cmd *cobra.Command, args []string) error {
				return jf.runControl(cmd, action)
			},
		})
	}
	return cmd
}

// operator returns the named job, requiring --name.
func (jf *jobFlags) operator() (*diffbot.Client, *diffbot.JobOperator, error) {
	if jf.name == "" {
		return nil, nil, exitError(ExitInvalidInput, "--name is required")
	}
	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	op, err := client.Job(jf.family, jf.name)
	if err != nil {
		return nil, nil, exitError(ExitInvalidInput, "%v", err)
	}
	return client, op, nil
}

// jobParams builds BulkArgs or CrawlArgs params from the flags that were
// set explicitly.
func (jf *jobFlags) jobParams(cmd *cobra.Command) (diffbot.Params, error) {
	flags := cmd.Flags()
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetString(name)
		note(err)
		return diffbot.String(v)
	}
	integer := func(name string) *int {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetInt(name)
		note(err)
		return diffbot.Int(v)
	}
	float := func(name string) *float64 {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetFloat64(name)
		note(err)
		return diffbot.Float(v)
	}
	boolean := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetBool(name)
		note(err)
		return diffbot.Bool(v)
	}

	common := diffbot.JobArgs{
		CustomHeaders:      str("custom-headers"),
		NotifyEmail:        str("notify-email"),
		NotifyWebhook:      str("notify-webhook"),
		Repeat:             float("repeat"),
		MaxRounds:          integer("max-rounds"),
		PageProcessPattern: str("page-process-pattern"),
	}
	if jf.family == diffbot.FamilyBulk {
		return diffbot.BulkArgs{JobArgs: common}.Params(), firstErr
	}
	return diffbot.CrawlArgs{
		JobArgs:           common,
		URLCrawlPattern:   str("url-crawl-pattern"),
		URLCrawlRegEx:     str("url-crawl-regex"),
		URLProcessPattern: str("url-process-pattern"),
		URLProcessRegEx:   str("url-process-regex"),
		ObeyRobots:        boolean("obey-robots"),
		RestrictDomain:    boolean("restrict-domain"),
		UseProxies:        boolean("use-proxies"),
		MaxHops:           integer("max-hops"),
		MaxToCrawl:        integer("max-to-crawl"),
		MaxToProcess:      integer("max-to-process"),
		CrawlDelay:        float("crawl-delay"),
		OnlyProcessIfNew:  boolean("only-process-if-new"),
	}.Params(), firstErr
}

func (jf *jobFlags) runStart(cmd *cobra.Command, args []string) error {
	if jf.name == "" {
		jf.name = string(jf.family) + "-" + uuid.NewString()
		info("Generated job name: %s", jf.name)
	}
	params, err := jf.jobParams(cmd)
	if err != nil {
		return exitError(ExitInvalidInput, "%v", err)
	}

	ctx := cmd.Context()
	collector := &seeds.Collector{File: jf.file, Feeds: jf.feeds, Stdin: seeds.PipedStdin()}
	urls, err := collector.Collect(ctx, args)
	if err != nil {
		return exitError(ExitInvalidInput, "failed to collect URLs: %v", err)
	}
	if len(urls) == 0 {
		return exitError(ExitInvalidInput, "no URLs provided")
	}

	client, op, err := jf.operator()
	if err != nil {
		return err
	}

	apiURL := jf.apiURL
	if apiURL == "" {
		var apiOpts diffbot.Params
		if jf.fields != "" {
			apiOpts = diffbot.Params{"fields": jf.fields}
		}
		apiURL = client.APIURL(diffbot.ResultType(jf.apiType), apiOpts)
	}

	logger.Info("starting job", "family", string(jf.family), "job", jf.name, "targets", len(urls), "apiUrl", apiURL)
	ack, err := op.StartJob(ctx, urls, apiURL, params)
	if err != nil {
		return fail(err)
	}
	if msg, ok := ack["response"].(string); ok {
		info("%s", msg)
	}
	fmt.Println(jf.name)

	if jf.wait {
		return jf.waitFor(cmd, op)
	}
	return nil
}

func (jf *jobFlags) runStatus(cmd *cobra.Command, args []string) error {
	_, op, err := jf.operator()
	if err != nil {
		return err
	}
	status, err := op.FetchJobStatus(cmd.Context())
	if err != nil {
		return fail(err)
	}
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"name":    jf.name,
			"status":  int(status.Status),
			"state":   status.Status.String(),
			"message": status.Message,
		})
	}
	fmt.Printf("%s: %s (%d) %s\n", jf.name, status.Status, int(status.Status), status.Message)
	return nil
}

func (jf *jobFlags) runData(cmd *cobra.Command, args []string) error {
	_, op, err := jf.operator()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dataFormat := diffbot.Format(strings.ToLower(jf.dataFormat))
	if dataFormat != diffbot.FormatJSON && dataFormat != diffbot.FormatCSV {
		return exitError(ExitInvalidInput, "unknown data format %q (available: json, csv)", jf.dataFormat)
	}

	if jf.raw || dataFormat == diffbot.FormatCSV {
		objs, err := op.FetchRawData(ctx, dataFormat)
		if err != nil {
			return fail(err)
		}
		data, err := json.MarshalIndent(objs, "", "  ")
		if err != nil {
			return exitError(ExitNetworkError, "failed to encode results: %v", err)
		}
		return writeDocuments([]document{{key: jf.name, content: string(data) + "\n"}}, "json")
	}

	renderer, format, err := newRenderer()
	if err != nil {
		return err
	}
	var docs []document
	for ext, err := range op.LazyFetchExtractors(ctx) {
		if err != nil {
			return fail(err)
		}
		rendered, err := renderAll(renderer, format, jf.name, []diffbot.Extractor{ext})
		if err != nil {
			return exitError(ExitNetworkError, "%v", err)
		}
		docs = append(docs, rendered...)
	}
	logger.Info("downloaded results", "job", jf.name, "count", len(docs))
	return writeDocuments(docs, format)
}

func (jf *jobFlags) runWait(cmd *cobra.Command, args []string) error {
	_, op, err := jf.operator()
	if err != nil {
		return err
	}
	return jf.waitFor(cmd, op)
}

func (jf *jobFlags) waitFor(cmd *cobra.Command, op *diffbot.JobOperator) error {
	interval, maxWait := cfg.Poll.Interval, cfg.Poll.MaxWait
	if cmd.Flags().Changed("interval") {
		interval = jf.interval
	}
	if cmd.Flags().Changed("max-wait") {
		maxWait = jf.maxWait
	}

	last := diffbot.JobStatusCode(-1)
	status, err := poll.Wait(cmd.Context(), op, poll.Options{
		Interval: time.Duration(interval) * time.Second,
		MaxWait:  time.Duration(maxWait) * time.Second,
		Logger:   logger,
		OnStatus: func(s diffbot.JobStatus) {
			if s.Status != last {
				info("%s: %s %s", op.Name(), s.Status, s.Message)
				last = s.Status
			}
		},
	})
	if err != nil {
		return fail(err)
	}
	info("%s: %s", op.Name(), status.Status)
	return nil
}

func (jf *jobFlags) runControl(cmd *cobra.Command, action diffbot.Action) error {
	_, op, err := jf.operator()
	if err != nil {
		return err
	}
	if err := op.Control(cmd.Context(), action); err != nil {
		return fail(err)
	}
	info("%s %q: %s sent", jf.family, jf.name, action)
	return nil
}
