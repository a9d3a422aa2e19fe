// Package render turns extractor results into text, markdown, json or
// html for the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat parses a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (available: text, markdown, json, html)", s)
}

// Ext is the file extension used when writing one result per file.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	}
	return ".txt"
}

// Options control text wrapping and metadata headers.
type Options struct {
	LineWidth       int
	IncludeMetadata bool
	PreserveLinks   bool
}

// Renderer formats extractors. It is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New returns a Renderer using opts.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render formats one extractor. Missing optional keys are skipped; only
// json output of a result is guaranteed to be lossless.
func (r *Renderer) Render(ext diffbot.Extractor, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return r.JSON(ext)
	case FormatHTML:
		return r.HTML(ext), nil
	case FormatMarkdown:
		return r.Markdown(ext), nil
	default:
		return r.Text(ext), nil
	}
}

// JSON returns the raw result object, indented.
func (r *Renderer) JSON(ext diffbot.Extractor) (string, error) {
	data, err := json.MarshalIndent(ext.RawData(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", ext.Type(), err)
	}
	return string(data), nil
}

// HTML returns the result's "html" field, falling back to the text
// rendering.
func (r *Renderer) HTML(ext diffbot.Extractor) string {
	if a, ok := ext.(*diffbot.ArticleExtractor); ok {
		if html, err := a.HTML(false); err == nil {
			return html
		}
	}
	if html, ok := stringField(ext, "html"); ok {
		return html
	}
	return r.Text(ext)
}

// Text returns the title and body as wrapped plain text.
func (r *Renderer) Text(ext diffbot.Extractor) string {
	var parts []string
	if title, err := ext.Title(); err == nil && title != "" {
		parts = append(parts, title)
	}
	if r.opts.IncludeMetadata {
		if meta := metadata(ext); len(meta) > 0 {
			var lines []string
			for _, kv := range meta {
				lines = append(lines, kv[0]+": "+kv[1])
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	if body := r.bodyText(ext); body != "" {
		parts = append(parts, wrapText(CleanNewlines(body), r.opts.LineWidth))
	}
	return strings.Join(parts, "\n\n")
}

func (r *Renderer) bodyText(ext diffbot.Extractor) string {
	switch e := ext.(type) {
	case *diffbot.ArticleExtractor:
		text, _ := e.HTML(true)
		return text
	case *diffbot.DiscussionExtractor:
		posts, _ := e.Posts()
		var lines []string
		for _, p := range posts {
			author, _ := p["author"].(string)
			text, _ := p["text"].(string)
			if author != "" {
				text = author + ": " + text
			}
			lines = append(lines, text)
		}
		return strings.Join(lines, "\n\n")
	case *diffbot.ImageExtractor:
		u, _ := e.ImageURL()
		return u
	case *diffbot.ProductExtractor:
		price, _ := e.OfferPrice()
		text, _ := stringField(e, "text")
		return strings.TrimSpace(strings.Join(nonEmpty(price, text), "\n\n"))
	case *diffbot.AnalyzeExtractor:
		objs, err := e.Objects()
		if err != nil {
			return ""
		}
		var blocks []string
		for _, o := range objs {
			if s := r.Text(o); s != "" {
				blocks = append(blocks, s)
			}
		}
		return strings.Join(blocks, "\n\n")
	}
	text, _ := stringField(ext, "text")
	return text
}

// Markdown converts the result to markdown, with a metadata header when
// IncludeMetadata is set.
func (r *Renderer) Markdown(ext diffbot.Extractor) string {
	var md strings.Builder

	if title, err := ext.Title(); err == nil && title != "" {
		md.WriteString(fmt.Sprintf("# %s\n\n", title))
	}

	if r.opts.IncludeMetadata {
		for _, kv := range metadata(ext) {
			md.WriteString(fmt.Sprintf("**%s:** %s\n\n", kv[0], kv[1]))
		}
	}

	switch e := ext.(type) {
	case *diffbot.ArticleExtractor:
		if html, err := e.HTML(false); err == nil {
			r.htmlToMarkdown(html, &md)
		} else if text, err := e.HTML(true); err == nil {
			md.WriteString(CleanNewlines(text))
		}
	case *diffbot.DiscussionExtractor:
		posts, _ := e.Posts()
		for _, p := range posts {
			author, _ := p["author"].(string)
			text, _ := p["text"].(string)
			if author != "" {
				md.WriteString(fmt.Sprintf("- **%s:** %s\n", author, CleanNewlines(text)))
			} else {
				md.WriteString(fmt.Sprintf("- %s\n", CleanNewlines(text)))
			}
		}
	case *diffbot.ImageExtractor:
		if u, err := e.ImageURL(); err == nil {
			title, _ := e.Title()
			md.WriteString(fmt.Sprintf("![%s](%s)\n", title, u))
		}
	case *diffbot.AnalyzeExtractor:
		objs, _ := e.Objects()
		for _, o := range objs {
			md.WriteString(r.Markdown(o))
			md.WriteString("\n")
		}
	default:
		if body := r.bodyText(ext); body != "" {
			md.WriteString(CleanNewlines(body))
		}
	}

	return strings.TrimRight(md.String(), "\n") + "\n"
}

func (r *Renderer) htmlToMarkdown(html string, md *strings.Builder) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		md.WriteString(html)
		return
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	r.convertToMarkdown(body, md)
}

func (r *Renderer) convertToMarkdown(sel *goquery.Selection, md *strings.Builder) {
	sel.Contents().Each(func(i int, s *goquery.Selection) {
		node := s.Get(0)
		if node.Type == 1 { // Element node
			tagName := strings.ToLower(node.Data)

			switch tagName {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(tagName[1] - '0')
				md.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), strings.TrimSpace(s.Text())))
			case "p":
				var pContent strings.Builder
				r.convertToMarkdown(s, &pContent)
				text := strings.TrimSpace(pContent.String())
				if text != "" {
					md.WriteString(fmt.Sprintf("%s\n\n", text))
				}
			case "br":
				md.WriteString("\n")
			case "a":
				href, exists := s.Attr("href")
				if r.opts.PreserveLinks && exists && href != "" {
					md.WriteString(fmt.Sprintf("[%s](%s)", s.Text(), href))
				} else {
					md.WriteString(s.Text())
				}
			case "strong", "b":
				md.WriteString(fmt.Sprintf("**%s**", s.Text()))
			case "em", "i":
				md.WriteString(fmt.Sprintf("*%s*", s.Text()))
			case "code":
				md.WriteString(fmt.Sprintf("`%s`", s.Text()))
			case "pre":
				md.WriteString(fmt.Sprintf("```\n%s\n```\n\n", s.Text()))
			case "blockquote":
				for _, line := range strings.Split(s.Text(), "\n") {
					if strings.TrimSpace(line) != "" {
						md.WriteString(fmt.Sprintf("> %s\n", strings.TrimSpace(line)))
					}
				}
				md.WriteString("\n")
			case "ul", "ol":
				convertList(s, md, tagName == "ol", 0)
			case "img":
				if src, exists := s.Attr("src"); exists {
					md.WriteString(fmt.Sprintf("![%s](%s)\n\n", s.AttrOr("alt", ""), src))
				}
			case "script", "style", "noscript":
			default:
				r.convertToMarkdown(s, md)
			}
		} else if node.Type == 3 { // Text node
			text := strings.TrimSpace(node.Data)
			if text != "" {
				md.WriteString(text)
			}
		}
	})
}

func convertList(sel *goquery.Selection, md *strings.Builder, ordered bool, depth int) {
	prefix := strings.Repeat("  ", depth)

	sel.ChildrenFiltered("li").Each(func(i int, s *goquery.Selection) {
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}

		own := s.Clone()
		own.Find("ul, ol").Remove()
		md.WriteString(fmt.Sprintf("%s%s%s\n", prefix, marker, strings.TrimSpace(own.Text())))

		s.ChildrenFiltered("ul, ol").Each(func(j int, nested *goquery.Selection) {
			convertList(nested, md, nested.Is("ol"), depth+1)
		})
	})

	if depth == 0 {
		md.WriteString("\n")
	}
}

// metadata returns the display pairs shared by every result type.
func metadata(ext diffbot.Extractor) [][2]string {
	var meta [][2]string
	add := func(key, value string) {
		if value != "" {
			meta = append(meta, [2]string{key, value})
		}
	}
	add("Type", string(ext.Type()))
	if u, err := ext.PageURL(); err == nil {
		add("URL", u)
	}
	if u, ok := ext.ResolvedURL(); ok {
		add("Resolved URL", u)
	}
	for _, key := range []string{"author", "date", "siteName", "humanLanguage"} {
		if v, ok := stringField(ext, key); ok {
			add(key, v)
		}
	}
	if tags, ok := ext.RawData()["tags"].([]any); ok {
		var labels []string
		for _, t := range tags {
			if tag, ok := t.(map[string]any); ok {
				if label, ok := tag["label"].(string); ok {
					labels = append(labels, label)
				}
			}
		}
		sort.Strings(labels)
		add("tags", strings.Join(labels, ", "))
	}
	return meta
}

func stringField(ext diffbot.Extractor, key string) (string, bool) {
	v, ok := ext.RawData()[key].(string)
	return v, ok
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
