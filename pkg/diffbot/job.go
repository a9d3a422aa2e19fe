package diffbot

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Family is the asynchronous API a job belongs to.
type Family string

const (
	FamilyBulk  Family = "bulk"
	FamilyCrawl Family = "crawl"
)

// ErrUnknownFamily is returned for a family other than bulk or crawl.
var ErrUnknownFamily = errors.New("diffbot: unknown job family")

// ParseFamily parses "bulk" or "crawl", ignoring case.
func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyBulk, FamilyCrawl:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (available: bulk, crawl)", ErrUnknownFamily, s)
}

// ErrNoTargetURLs is returned by StartJob when no URLs are given.
var ErrNoTargetURLs = errors.New("diffbot: at least one target url is required")

// submitter holds what differs between the bulk and crawl APIs: how the
// submission query is shaped and how it is sent.
type submitter interface {
	composeQuery(jobName string, targetURLs []string, apiURL string, opts Params) Params
	send(ctx context.Context, t Transport, path string, q Params) ([]byte, error)
}

// bulkSubmitter POSTs a form-encoded body with space-joined "urls".
type bulkSubmitter struct{}

func (bulkSubmitter) composeQuery(jobName string, targetURLs []string, apiURL string, opts Params) Params {
	return Params{
		"name":   jobName,
		"urls":   strings.Join(targetURLs, " "),
		"apiUrl": apiURL,
	}.Merge(opts)
}

func (bulkSubmitter) send(ctx context.Context, t Transport, path string, q Params) ([]byte, error) {
	return t.PostForm(ctx, path, q)
}

// crawlSubmitter GETs with space-joined "seeds" in the query string.
type crawlSubmitter struct{}

func (crawlSubmitter) composeQuery(jobName string, targetURLs []string, apiURL string, opts Params) Params {
	return Params{
		"seeds":  strings.Join(targetURLs, " "),
		"name":   jobName,
		"apiUrl": apiURL,
	}.Merge(opts)
}

func (crawlSubmitter) send(ctx context.Context, t Transport, path string, q Params) ([]byte, error) {
	return t.Get(ctx, path, q)
}

// JobOperator manages one named bulk or crawl job. It keeps no copy of the
// job's state: every status read goes to the service, and lifecycle
// commands are sent without touching anything locally. It never retries.
type JobOperator struct {
	name      string
	family    Family
	transport Transport
	submitter submitter
}

// NewBulkJobOperator returns an operator for the bulk job called name.
func NewBulkJobOperator(t Transport, name string) *JobOperator {
	return &JobOperator{name: name, family: FamilyBulk, transport: t, submitter: bulkSubmitter{}}
}

// NewCrawlJobOperator returns an operator for the crawl job called name.
func NewCrawlJobOperator(t Transport, name string) *JobOperator {
	return &JobOperator{name: name, family: FamilyCrawl, transport: t, submitter: crawlSubmitter{}}
}

// Name returns the job name the operator addresses.
func (j *JobOperator) Name() string { return j.name }

// Family returns whether this is a bulk or crawl job.
func (j *JobOperator) Family() Family { return j.family }

// StartJob creates (or updates) the job over targetURLs, processing each
// page with the extraction API at apiURL. opts usually comes from
// BulkArgs.Params or CrawlArgs.Params. The service acknowledgment is
// returned as is.
func (j *JobOperator) StartJob(ctx context.Context, targetURLs []string, apiURL string, opts Params) (Object, error) {
	if len(targetURLs) == 0 {
		return nil, ErrNoTargetURLs
	}
	q := j.submitter.composeQuery(j.name, targetURLs, apiURL, opts)
	body, err := j.submitter.send(ctx, j.transport, string(j.family), q)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

type jobListing struct {
	Jobs []struct {
		Name      string    `json:"name"`
		JobStatus JobStatus `json:"jobStatus"`
	} `json:"jobs"`
}

// FetchJobStatus looks the job up by name in the family's job listing.
func (j *JobOperator) FetchJobStatus(ctx context.Context) (JobStatus, error) {
	body, err := j.transport.Get(ctx, string(j.family), Params{"name": j.name})
	if err != nil {
		return JobStatus{}, err
	}

	var listing jobListing
	if err := decodeJSON(body, &listing); err != nil {
		return JobStatus{}, err
	}
	for _, job := range listing.Jobs {
		if job.Name == j.name {
			return job.JobStatus, nil
		}
	}
	return JobStatus{}, &Error{Kind: KindNotFound, Job: j.name}
}

// checkCompleted is the single gate in front of every result read.
func (j *JobOperator) checkCompleted(ctx context.Context) error {
	status, err := j.FetchJobStatus(ctx)
	if err != nil {
		return err
	}
	if !status.Completed() {
		return &Error{Kind: KindJobStatus, Job: j.name, Status: status.Status, Message: status.Message}
	}
	return nil
}

// FetchRawData returns every result object of a completed job. A job that
// has not completed yields a KindJobStatus error and the data endpoint is
// not called. An empty format means FormatJSON; csv rows are returned as
// objects keyed by the header row.
func (j *JobOperator) FetchRawData(ctx context.Context, format Format) ([]Object, error) {
	if format == "" {
		format = FormatJSON
	}
	if err := j.checkCompleted(ctx); err != nil {
		return nil, err
	}

	body, err := j.transport.Get(ctx, string(j.family)+"/data", Params{
		"name":   j.name,
		"format": string(format),
	})
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		return parseCSV(body)
	}
	return unwrapObjects(body)
}

// LazyFetchExtractors yields one Extractor per result of a completed job.
// Nothing is requested until iteration starts; if the status check or the
// fetch fails, the only value yielded is that error. A result with an
// unknown type yields its error and ends the sequence. The sequence is
// not restartable: iterating again issues new requests.
func (j *JobOperator) LazyFetchExtractors(ctx context.Context) iter.Seq2[Extractor, error] {
	return func(yield func(Extractor, error) bool) {
		objs, err := j.FetchRawData(ctx, FormatJSON)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, obj := range objs {
			ext, err := FromObject(obj)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ext, nil) {
				return
			}
		}
	}
}

// FetchCompletedSearcher returns a Searcher over this job's indexed results
// once the job has completed.
func (j *JobOperator) FetchCompletedSearcher(ctx context.Context) (*Searcher, error) {
	if err := j.checkCompleted(ctx); err != nil {
		return nil, err
	}
	return NewSearcher(j.transport, j.name), nil
}

// Action is a lifecycle command.
type Action string

const (
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionRestart Action = "restart"
	ActionDelete  Action = "delete"
)

var controlParams = map[Action]Params{
	ActionPause:   {"pause": "1"},
	ActionResume:  {"pause": "0"},
	ActionRestart: {"restart": "1"},
	ActionDelete:  {"delete": "1"},
}

// PauseJob pauses the job. See Control.
func (j *JobOperator) PauseJob(ctx context.Context) error { return j.Control(ctx, ActionPause) }

// ResumeJob resumes a paused job.
func (j *JobOperator) ResumeJob(ctx context.Context) error { return j.Control(ctx, ActionResume) }

// RestartJob drops the job results and starts it over.
func (j *JobOperator) RestartJob(ctx context.Context) error { return j.Control(ctx, ActionRestart) }

// DeleteJob deletes the job and its results.
func (j *JobOperator) DeleteJob(ctx context.Context) error { return j.Control(ctx, ActionDelete) }

// Control sends one lifecycle command. Repeated calls send repeated
// requests.
func (j *JobOperator) Control(ctx context.Context, action Action) error {
	p, ok := controlParams[action]
	if !ok {
		return errors.New("diffbot: unknown job action " + string(action))
	}
	_, err := j.transport.Get(ctx, string(j.family), Params{"name": j.name}.Merge(p))
	return err
}
