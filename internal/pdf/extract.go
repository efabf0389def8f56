// Package pdf pulls a query title and abstract out of an uploaded
// paper PDF.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	abstractStart = regexp.MustCompile(`(?i)^abstract\b`)
	abstractEnd   = regexp.MustCompile(`(?i)^(keywords?|1\.|introduction|background)\b`)
)

// ExtractTitleAbstract reads the first page of a PDF and returns its
// title and abstract, best effort. The title is taken to be the text
// set in the page's largest font. The abstract is the text between a
// line starting with "Abstract" and the next section marker (keywords,
// introduction, or a "1." heading). Either result may be empty; PDFs
// without a recognizable layout are common and not an error.
func ExtractTitleAbstract(path string) (title, abstract string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return "", "", nil
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return "", "", nil
	}

	texts := page.Content().Text
	lines := groupLines(texts)

	maxFont := 0.0
	for _, t := range texts {
		if t.FontSize > maxFont {
			maxFont = t.FontSize
		}
	}

	var titleParts, abstractParts []string
	inAbstract := false
	for _, line := range lines {
		text := strings.TrimSpace(line.text)
		if text == "" {
			continue
		}

		if line.fontSize == maxFont {
			titleParts = append(titleParts, text)
		}

		if abstractStart.MatchString(text) {
			inAbstract = true
			// Some layouts run the abstract body on the same line as
			// the heading.
			rest := strings.TrimSpace(abstractStart.ReplaceAllString(text, ""))
			rest = strings.TrimLeft(rest, ".:- ")
			if rest != "" {
				abstractParts = append(abstractParts, rest)
			}
			continue
		}
		if inAbstract {
			if abstractEnd.MatchString(text) {
				inAbstract = false
				continue
			}
			abstractParts = append(abstractParts, text)
		}
	}

	return strings.Join(titleParts, " "), strings.Join(abstractParts, " "), nil
}

// line is one visual text line: spans sharing a baseline.
type line struct {
	text     string
	fontSize float64
}

// groupLines merges character spans into lines by their Y coordinate.
// The largest font size on a line wins, so a bolded first word does
// not split the title.
func groupLines(texts []pdf.Text) []line {
	var (
		out []line
		cur strings.Builder
		y   = -1.0
		fs  = 0.0
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, line{text: cur.String(), fontSize: fs})
			cur.Reset()
			fs = 0
		}
	}
	for _, t := range texts {
		if y >= 0 && t.Y != y {
			flush()
		}
		y = t.Y
		if t.FontSize > fs {
			fs = t.FontSize
		}
		cur.WriteString(t.S)
	}
	flush()
	return out
}
