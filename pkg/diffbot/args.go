package diffbot

// Argument builders translate optional settings into Params. A nil field is
// dropped entirely rather than sent empty.

// CommonArgs are accepted by every single-URL extraction API.
type CommonArgs struct {
	Fields   *string
	Timeout  *int // milliseconds, server side
	Callback *string
}

func (a CommonArgs) params() sparse {
	return sparse{}.
		setString("fields", a.Fields).
		setInt("timeout", a.Timeout).
		setString("callback", a.Callback)
}

// Params returns the set options.
func (a CommonArgs) Params() Params { return Params(a.params()) }

// AnalyzeArgs configure the analyze API.
type AnalyzeArgs struct {
	CommonArgs
	Mode       *string
	Fallback   *string
	Discussion *bool
}

// Params returns only the arguments that were set.
func (a AnalyzeArgs) Params() Params {
	return Params(a.CommonArgs.params().
		setString("mode", a.Mode).
		setString("fallback", a.Fallback).
		setFlag("discussion", a.Discussion))
}

// ArticleArgs configure the article API.
type ArticleArgs struct {
	CommonArgs
	Paging        *bool
	MaxTags       *int
	TagConfidence *float64
	Discussion    *bool
}

// Params returns only the arguments that were set.
func (a ArticleArgs) Params() Params {
	return Params(a.CommonArgs.params().
		setFlag("paging", a.Paging).
		setInt("maxTags", a.MaxTags).
		setFloat("tagConfidence", a.TagConfidence).
		setFlag("discussion", a.Discussion))
}

// DiscussionArgs configure the discussion API.
type DiscussionArgs struct {
	CommonArgs
	MaxPages *int
}

// Params returns only the arguments that were set.
func (a DiscussionArgs) Params() Params {
	return Params(a.CommonArgs.params().setInt("maxPages", a.MaxPages))
}

// ImageArgs configure the image API.
type ImageArgs struct {
	CommonArgs
}

// ProductArgs configure the product API.
type ProductArgs struct {
	CommonArgs
	Discussion *bool
}

// Params returns only the arguments that were set.
func (a ProductArgs) Params() Params {
	return Params(a.CommonArgs.params().setFlag("discussion", a.Discussion))
}

// VideoArgs configure the video API.
type VideoArgs struct {
	CommonArgs
}

// JobArgs are shared by the bulk and crawl APIs.
type JobArgs struct {
	CustomHeaders      *string
	NotifyEmail        *string
	NotifyWebhook      *string
	Repeat             *float64 // days between rounds
	MaxRounds          *int
	PageProcessPattern *string
}

func (a JobArgs) params() sparse {
	return sparse{}.
		setString("customHeaders", a.CustomHeaders).
		setString("notifyEmail", a.NotifyEmail).
		setString("notifyWebhook", a.NotifyWebhook).
		setFloat("repeat", a.Repeat).
		setInt("maxRounds", a.MaxRounds).
		setString("pageProcessPattern", a.PageProcessPattern)
}

// BulkArgs configure a bulk job.
type BulkArgs struct {
	JobArgs
}

// Params returns the job arguments that were set.
func (a BulkArgs) Params() Params { return Params(a.JobArgs.params()) }

// CrawlArgs configure a crawl job.
type CrawlArgs struct {
	JobArgs
	URLCrawlPattern   *string
	URLCrawlRegEx     *string
	URLProcessPattern *string
	URLProcessRegEx   *string
	ObeyRobots        *bool
	RestrictDomain    *bool
	UseProxies        *bool
	MaxHops           *int
	MaxToCrawl        *int
	MaxToProcess      *int
	CrawlDelay        *float64 // seconds
	OnlyProcessIfNew  *bool
}

// Params returns the job and crawl arguments that were set.
func (a CrawlArgs) Params() Params {
	return Params(a.JobArgs.params().
		setString("urlCrawlPattern", a.URLCrawlPattern).
		setString("urlCrawlRegEx", a.URLCrawlRegEx).
		setString("urlProcessPattern", a.URLProcessPattern).
		setString("urlProcessRegEx", a.URLProcessRegEx).
		setBool("obeyRobots", a.ObeyRobots).
		setBool("restrictDomain", a.RestrictDomain).
		setBool("useProxies", a.UseProxies).
		setInt("maxHops", a.MaxHops).
		setInt("maxToCrawl", a.MaxToCrawl).
		setInt("maxToProcess", a.MaxToProcess).
		setFloat("crawlDelay", a.CrawlDelay).
		setBool("onlyProcessIfNew", a.OnlyProcessIfNew))
}

// SearchArgs configure the search API.
type SearchArgs struct {
	Num   *int
	Start *int
}

// Params returns num and start when set.
func (a SearchArgs) Params() Params {
	return Params(sparse{}.
		setInt("num", a.Num).
		setInt("start", a.Start))
}
