package news

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var multiSpacePattern = regexp.MustCompile(`\s{2,}`)

// stripHTML reduces a provider text field to plain text. NewsAPI titles and
// descriptions regularly embed markup from the source site.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)

	out := multiSpacePattern.ReplaceAllString(sb.String(), " ")
	return strings.TrimSpace(out)
}
