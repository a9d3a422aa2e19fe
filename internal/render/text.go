package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// wrapText breaks each paragraph of text into lines no wider than width.
// A width of zero or less leaves text alone. Words longer than width get
// a line of their own.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	paragraphs := strings.Split(text, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = wrapWords(strings.Fields(p), width)
	}
	return strings.Join(paragraphs, "\n\n")
}

func wrapWords(words []string, width int) string {
	var b strings.Builder
	lineLen := 0
	for _, w := range words {
		switch {
		case lineLen == 0:
		case lineLen+1+len(w) <= width:
			b.WriteByte(' ')
			lineLen++
		default:
			b.WriteByte('\n')
			lineLen = 0
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}

// CleanNewlines joins lines that were broken mid-sentence while keeping
// paragraph breaks and list items.
func CleanNewlines(text string) string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if joined := joinBrokenLines(p); joined != "" {
			paragraphs = append(paragraphs, joined)
		}
	}

	result := strings.Join(paragraphs, "\n\n")
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return strings.TrimSpace(result)
}

func joinBrokenLines(paragraph string) string {
	var lines []string
	for _, line := range strings.Split(paragraph, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n := len(lines); n > 0 && !endsSentence(lines[n-1]) && !startsLine(line) {
			lines[n-1] += " " + line
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func endsSentence(line string) bool {
	return strings.IndexByte(".!?:;", line[len(line)-1]) >= 0
}

// startsLine reports whether line opens a new sentence or list item.
func startsLine(line string) bool {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return true
		}
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}
