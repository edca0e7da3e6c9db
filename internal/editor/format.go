package editor

import (
	"strings"

	"golang.org/x/net/html"
)

// FormatLoad flattens editor HTML into two parallel runs: the text
// fragments and the format each fragment carries. A paragraph element
// contributes a "\n" text with the paragraph class as its format, so
// the runs describe the whole document character stream the way the
// editor counts it.
func FormatLoad(htmlCode string) (texts, formats []string, err error) {
	htmlCode = strings.ReplaceAll(htmlCode, "&nbsp;", " ")
	htmlCode = strings.ReplaceAll(htmlCode, "\u00a0", " ")

	nodes, err := parseFragment(htmlCode)
	if err != nil {
		return nil, nil, err
	}

	l := &formatLoader{}
	for _, node := range nodes {
		l.processNode(node)
	}
	return l.texts, l.formats, nil
}

type formatLoader struct {
	texts           []string
	formats         []string
	characterFormat string
}

func (l *formatLoader) processNode(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		// The editor inserts a cursor marker node of its own; the user
		// did not type it.
		if classOf(n) == "ql-cursor" {
			return
		}
		l.openElement(n)
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			l.processNode(child)
		}
		l.closeElement(n)
	case html.TextNode:
		l.texts = append(l.texts, n.Data)
		l.formats = append(l.formats, l.characterFormat)
	}
}

func (l *formatLoader) openElement(n *html.Node) {
	class := classOf(n)
	switch n.Data {
	case "p":
		if class == "" {
			class = "p"
		}
		l.texts = append(l.texts, "\n")
		l.formats = append(l.formats, class)
		// A new line clears the character formatting.
		l.characterFormat = ""
	case "span":
		l.characterFormat = class
	}
}

func (l *formatLoader) closeElement(n *html.Node) {
	switch n.Data {
	case "p", "span":
		l.characterFormat = ""
	}
}
