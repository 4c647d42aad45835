package render

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "br": true,
	"h1": true, "h2": true, "h3": true, "table": true, "ul": true,
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markup from a rendered document, keeping one line per
// block element and tab-separated table cells. Used for email bodies.
func PlainText(doc string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return tidy(b.String()), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "style" || tag == "script" || tag == "title":
				skip++
			case tag == "td" || tag == "th":
				b.WriteByte('\t')
			case tag == "li":
				b.WriteString("\n- ")
			case blockTags[tag]:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "style" || tag == "script" || tag == "title" {
				if skip > 0 {
					skip--
				}
			} else if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				b.WriteString(strings.ReplaceAll(string(z.Text()), "\n", " "))
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
