package diffbot

import "context"

// Searcher runs full-text queries over the indexed results of one job.
type Searcher struct {
	transport Transport
	job       string
}

// NewSearcher returns a Searcher over the collection named job.
func NewSearcher(t Transport, job string) *Searcher {
	return &Searcher{transport: t, job: job}
}

// Job returns the name of the searched job.
func (s *Searcher) Job() string { return s.job }

// FetchRawData returns the raw search response. opts usually comes from
// SearchArgs.Params.
func (s *Searcher) FetchRawData(ctx context.Context, query string, opts Params) (Object, error) {
	body, err := s.transport.Get(ctx, "search", Params{
		"col":   s.job,
		"query": query,
	}.Merge(opts))
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// FetchExtractors runs query and dispatches every hit on its own type.
func (s *Searcher) FetchExtractors(ctx context.Context, query string, opts Params) ([]Extractor, error) {
	body, err := s.transport.Get(ctx, "search", Params{
		"col":   s.job,
		"query": query,
	}.Merge(opts))
	if err != nil {
		return nil, err
	}
	objs, err := unwrapObjects(body)
	if err != nil {
		return nil, err
	}
	return extractorsOf(objs)
}

func extractorsOf(objs []Object) ([]Extractor, error) {
	exts := make([]Extractor, 0, len(objs))
	for _, obj := range objs {
		ext, err := FromObject(obj)
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}
