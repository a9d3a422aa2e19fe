package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/byteowlz/diffbot/internal/render"
	"github.com/byteowlz/diffbot/pkg/diffbot"
)

var (
	separator     string
	nullSeparator bool
)

// document is one rendered result and the key used to name its file.
type document struct {
	key     string
	content string
}

func newRenderer() (*render.Renderer, render.Format, error) {
	format, err := render.ParseFormat(outputFormat)
	if err != nil {
		return nil, "", exitError(ExitInvalidInput, "%v", err)
	}
	return render.New(render.Options{
		LineWidth:       cfg.Output.LineWidth,
		IncludeMetadata: cfg.Output.IncludeMetadata,
		PreserveLinks:   true,
	}), format, nil
}

// renderAll renders exts, keyed by page URL when present.
func renderAll(r *render.Renderer, format render.Format, fallbackKey string, exts []diffbot.Extractor) ([]document, error) {
	docs := make([]document, 0, len(exts))
	for _, ext := range exts {
		content, err := r.Render(ext, format)
		if err != nil {
			return nil, err
		}
		key, err := ext.PageURL()
		if err != nil {
			key = fallbackKey
		}
		docs = append(docs, document{key: key, content: content})
	}
	return docs, nil
}

// writeDocuments writes to stdout, a single file, or one file per
// document when the --output path is a directory.
func writeDocuments(docs []document, format render.Format) error {
	if outputFile == "" {
		return writeJoined(os.Stdout, docs)
	}

	fi, statErr := os.Stat(outputFile)
	if (statErr == nil && fi.IsDir()) || strings.HasSuffix(outputFile, "/") {
		if err := os.MkdirAll(outputFile, 0755); err != nil {
			return exitError(ExitFileIOError, "failed to create output directory: %v", err)
		}
		for i, doc := range docs {
			filename := urlToFilename(doc.key, format.Ext())
			if filename == format.Ext() {
				filename = fmt.Sprintf("result-%d%s", i+1, format.Ext())
			}
			path := filepath.Join(outputFile, filename)
			if err := os.WriteFile(path, []byte(doc.content), 0644); err != nil {
				return exitError(ExitFileIOError, "failed to write %s: %v", path, err)
			}
			logger.Debug("saved", "path", path)
		}
		return nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return exitError(ExitFileIOError, "failed to create output file %s: %v", outputFile, err)
	}
	defer f.Close()
	if err := writeJoined(f, docs); err != nil {
		return exitError(ExitFileIOError, "failed to write %s: %v", outputFile, err)
	}
	return nil
}

func writeJoined(w io.Writer, docs []document) error {
	sep := separator
	if sep == "" {
		sep = cfg.Output.Separator
	}
	for i, doc := range docs {
		if i > 0 {
			if nullSeparator {
				if _, err := fmt.Fprint(w, "\x00"); err != nil {
					return err
				}
			} else if _, err := fmt.Fprintf(w, "\n%s\n", sep); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, doc.content); err != nil {
			return err
		}
	}
	if len(docs) > 0 && !nullSeparator && !strings.HasSuffix(docs[len(docs)-1].content, "\n") {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// urlToFilename converts a URL to a safe filename
func urlToFilename(rawURL string, ext string) string {
	name := strings.TrimPrefix(rawURL, "https://")
	name = strings.TrimPrefix(name, "http://")

	replacer := strings.NewReplacer(
		"/", "_",
		"?", "_",
		"&", "_",
		"=", "_",
		":", "_",
		"#", "_",
		"%", "_",
	)
	name = strings.TrimRight(replacer.Replace(name), "_")

	if len(name) > 200 {
		name = name[:200]
	}
	return name + ext
}
