package diffbot

import "context"

// SingleFetcher calls the synchronous extraction APIs for one page.
type SingleFetcher struct {
	transport Transport
}

// NewSingleFetcher returns a fetcher sending requests through t.
func NewSingleFetcher(t Transport) *SingleFetcher {
	return &SingleFetcher{transport: t}
}

// FetchRawData returns the raw response of the apiType API for targetURL.
func (f *SingleFetcher) FetchRawData(ctx context.Context, apiType ResultType, targetURL string, opts Params) (Object, error) {
	body, err := f.transport.Get(ctx, string(apiType), Params{"url": targetURL}.Merge(opts))
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// FetchExtractors returns one extractor of apiType per object in the
// response. For TypeAnalyze the whole response is a single extractor.
func (f *SingleFetcher) FetchExtractors(ctx context.Context, apiType ResultType, targetURL string, opts Params) ([]Extractor, error) {
	data, err := f.FetchRawData(ctx, apiType, targetURL, opts)
	if err != nil {
		return nil, err
	}
	if apiType == TypeAnalyze {
		ext, err := NewExtractor(TypeAnalyze, data)
		if err != nil {
			return nil, err
		}
		return []Extractor{ext}, nil
	}

	raw, _ := data["objects"].([]any)
	exts := make([]Extractor, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ext, err := NewExtractor(apiType, obj)
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// FetchArticle calls the article API on targetURL.
func (f *SingleFetcher) FetchArticle(ctx context.Context, targetURL string, args ArticleArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeArticle, targetURL, args.Params())
}

// FetchAnalyze classifies targetURL and returns the analyze result.
func (f *SingleFetcher) FetchAnalyze(ctx context.Context, targetURL string, args AnalyzeArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeAnalyze, targetURL, args.Params())
}

// FetchDiscussion calls the discussion API on targetURL.
func (f *SingleFetcher) FetchDiscussion(ctx context.Context, targetURL string, args DiscussionArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeDiscussion, targetURL, args.Params())
}

// FetchImage returns one extractor per image found on targetURL.
func (f *SingleFetcher) FetchImage(ctx context.Context, targetURL string, args ImageArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeImage, targetURL, args.Params())
}

// FetchProduct calls the product API on targetURL.
func (f *SingleFetcher) FetchProduct(ctx context.Context, targetURL string, args ProductArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeProduct, targetURL, args.Params())
}

// FetchVideo calls the video API on targetURL.
func (f *SingleFetcher) FetchVideo(ctx context.Context, targetURL string, args VideoArgs) ([]Extractor, error) {
	return f.FetchExtractors(ctx, TypeVideo, targetURL, args.Params())
}

// APIURL builds the apiUrl value that tells a bulk or crawl job which
// extraction API to run on each page, e.g.
// https://api.diffbot.com/v3/article?fields=meta.
func APIURL(baseURL string, version int, apiType ResultType, opts Params) string {
	u := endpoint(baseURL, version, string(apiType))
	if len(opts) == 0 {
		return u
	}
	return u + "?" + opts.Encode()
}
