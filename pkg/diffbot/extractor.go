package diffbot

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResultType is the "type" discriminator of a result object.
type ResultType string

const (
	TypeArticle    ResultType = "article"
	TypeAnalyze    ResultType = "analyze"
	TypeDiscussion ResultType = "discussion"
	TypeImage      ResultType = "image"
	TypeProduct    ResultType = "product"
	TypeVideo      ResultType = "video"
)

// ResultTypes lists every known discriminator.
var ResultTypes = []ResultType{TypeArticle, TypeAnalyze, TypeDiscussion, TypeImage, TypeProduct, TypeVideo}

// Object is one raw JSON object returned by the service.
type Object map[string]any

// Extractor is a read-only typed view over one result object. The set of
// implementations is closed: *ArticleExtractor, *AnalyzeExtractor,
// *DiscussionExtractor, *ImageExtractor, *ProductExtractor and
// *VideoExtractor. Use a type switch to reach the variant accessors.
type Extractor interface {
	Type() ResultType
	RawData() Object
	// PageURL returns the required pageUrl key.
	PageURL() (string, error)
	// ResolvedURL returns resolvedPageUrl; ok is false when absent or null.
	ResolvedURL() (url string, ok bool)
	// Title returns the required title key.
	Title() (string, error)

	sealed()
}

// NewExtractor builds the variant for typ over obj.
func NewExtractor(typ ResultType, obj Object) (Extractor, error) {
	b := base{typ: typ, data: obj}
	switch typ {
	case TypeArticle:
		return &ArticleExtractor{b}, nil
	case TypeAnalyze:
		return &AnalyzeExtractor{b}, nil
	case TypeDiscussion:
		return &DiscussionExtractor{b}, nil
	case TypeImage:
		return &ImageExtractor{b}, nil
	case TypeProduct:
		return &ProductExtractor{b}, nil
	case TypeVideo:
		return &VideoExtractor{b}, nil
	default:
		return nil, &Error{Kind: KindUnknownExtractorType, Type: string(typ)}
	}
}

// FromObject dispatches on obj's own "type" field.
func FromObject(obj Object) (Extractor, error) {
	typ, _ := obj["type"].(string)
	return NewExtractor(ResultType(typ), obj)
}

type base struct {
	typ  ResultType
	data Object
}

func (b base) sealed() {}

// Type returns the result type the extractor was built for.
func (b base) Type() ResultType { return b.typ }

// RawData returns the result object as received.
func (b base) RawData() Object { return b.data }

// PageURL returns the required "pageUrl".
func (b base) PageURL() (string, error) { return b.requiredString("pageUrl") }

// ResolvedURL returns "resolvedPageUrl" when the page was redirected.
func (b base) ResolvedURL() (string, bool) { return b.optionalString("resolvedPageUrl") }

// Title returns the required "title".
func (b base) Title() (string, error) { return b.requiredString("title") }

func (b base) missing(field string) error {
	return &Error{Kind: KindMissingField, Type: string(b.typ), Field: field}
}

func (b base) requiredString(key string) (string, error) {
	v, ok := b.optionalString(key)
	if !ok {
		return "", b.missing(key)
	}
	return v, nil
}

func (b base) optionalString(key string) (string, bool) {
	v, ok := b.data[key].(string)
	return v, ok
}

// ArticleExtractor views an article API result.
type ArticleExtractor struct{ base }

// HTML returns the article body as HTML, or as plain text when plain is
// set. A result without "text" falls back to the text content of "html".
func (a *ArticleExtractor) HTML(plain bool) (string, error) {
	if !plain {
		return a.requiredString("html")
	}
	if text, ok := a.optionalString("text"); ok {
		return text, nil
	}
	html, err := a.requiredString("html")
	if err != nil {
		return "", a.missing("text")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", a.missing("text")
	}
	return blockText(doc.Selection), nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

var spaceRun = regexp.MustCompile(`\s+`)

// blockText returns the text of sel with one line per block element.
// Whitespace inside a block collapses to single spaces.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch name := goquery.NodeName(c); {
			case name == "#text":
				b.WriteString(spaceRun.ReplaceAllString(c.Text(), " "))
			case name == "br":
				b.WriteString("\n")
			case name == "script" || name == "style" || name == "#comment":
			case blockElements[name]:
				b.WriteString("\n")
				walk(c)
				b.WriteString("\n")
			default:
				walk(c)
			}
		})
	}
	walk(sel)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// SiteName returns the publisher name.
func (a *ArticleExtractor) SiteName() (string, error) { return a.requiredString("siteName") }

// Language returns the humanLanguage code.
func (a *ArticleExtractor) Language() (string, error) { return a.requiredString("humanLanguage") }

// AnalyzeExtractor views an analyze API response. The analyze API
// classifies the page and nests the matching typed results.
type AnalyzeExtractor struct{ base }

// Objects dispatches each nested result on its own type.
func (a *AnalyzeExtractor) Objects() ([]Extractor, error) {
	raw, _ := a.data["objects"].([]any)
	out := make([]Extractor, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ext, err := FromObject(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

// DiscussionExtractor views a discussion API result.
type DiscussionExtractor struct{ base }

// Posts returns the "posts" list. Entries that are not objects are
// skipped.
func (d *DiscussionExtractor) Posts() ([]Object, error) {
	raw, ok := d.data["posts"].([]any)
	if !ok {
		return nil, d.missing("posts")
	}
	posts := make([]Object, 0, len(raw))
	for _, p := range raw {
		if obj, ok := p.(map[string]any); ok {
			posts = append(posts, obj)
		}
	}
	return posts, nil
}

// ImageExtractor views an image API result.
type ImageExtractor struct{ base }

// ImageURL returns the direct url of the image.
func (i *ImageExtractor) ImageURL() (string, error) { return i.requiredString("url") }

// ProductExtractor views a product API result.
type ProductExtractor struct{ base }

// OfferPrice returns the displayed price, e.g. "$12.99".
func (p *ProductExtractor) OfferPrice() (string, bool) { return p.optionalString("offerPrice") }

// VideoExtractor views a video API result.
type VideoExtractor struct{ base }
