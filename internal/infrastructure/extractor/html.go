package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

func extractHTML(raw []byte) (domain.ExtractedText, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("parse html: %w", err)
	}

	title := textOf(findFirst(root, "title"))
	if title == "" {
		title = textOf(findFirst(root, "h1"))
	}
	return fromParagraphs(title, htmlParagraphs(root)), nil
}

var skippedTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"nav": true, "footer": true, "aside": true, "form": true, "template": true,
}

var blockTags = map[string]bool{
	"p": true, "li": true, "blockquote": true, "pre": true, "td": true, "dd": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// htmlParagraphs collects the text of block elements in document order.
// Text outside any block element forms its own paragraph.
func htmlParagraphs(root *html.Node) []string {
	var out []string
	var loose strings.Builder
	flushLoose := func() {
		if p := strings.Join(strings.Fields(loose.String()), " "); p != "" {
			out = append(out, p)
		}
		loose.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skippedTags[tag] {
				return
			}
			if blockTags[tag] {
				flushLoose()
				if p := textOf(n); p != "" {
					out = append(out, p)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			loose.WriteString(n.Data)
			loose.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	flushLoose()
	return out
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
