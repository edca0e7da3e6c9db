package editor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/davidrees/scriptorium/core/text"
	"github.com/davidrees/scriptorium/core/usfm"
)

// HTMLToUsfm converts editor HTML back to USFM code. Each <p> becomes a
// USFM line opened by the marker in its block class; classed spans
// become character styles, the verse span becomes a verse marker, and
// monospace paragraphs hold their USFM verbatim.
func HTMLToUsfm(htmlCode string) (string, error) {
	// The editor inserts non-breaking spaces and the occasional run of
	// spaces; normalize both before parsing.
	htmlCode = strings.ReplaceAll(htmlCode, "&nbsp;", " ")
	htmlCode = strings.ReplaceAll(htmlCode, "\u00a0", " ")
	htmlCode = text.CollapseWhitespace(htmlCode)

	nodes, err := parseFragment(htmlCode)
	if err != nil {
		return "", err
	}

	c := &usfmWriter{}
	for _, node := range nodes {
		c.processNode(node)
	}
	c.flushLine()
	return strings.Join(c.output, "\n"), nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

// classOf returns the node's class attribute with the Quill block and
// inline prefixes stripped.
func classOf(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			class := strings.TrimPrefix(attr.Val, classPrefixBlock)
			class = strings.TrimPrefix(class, classPrefixInline)
			return class
		}
	}
	return ""
}

type usfmWriter struct {
	output          []string
	currentLine     string
	characterStyles []string
	mono            bool
}

func (c *usfmWriter) processNode(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		c.openElement(n)
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.processNode(child)
		}
		c.closeElement(n)
	case html.TextNode:
		c.currentLine += n.Data
	}
}

func (c *usfmWriter) openElement(n *html.Node) {
	class := classOf(n)
	switch n.Data {
	case "p":
		// While editing, a p element may lose its class; treat it as
		// a plain paragraph.
		if class == "" {
			class = "p"
		}
		if class == monoStyle {
			// The monospace paragraph carries full USFM in its text.
			c.mono = true
		} else {
			c.currentLine += usfm.OpeningUsfm(class, false)
		}
	case "span":
		switch {
		case class == verseStyle:
			// A verse starts its own USFM line.
			c.flushLine()
			c.openInline(class)
		case class == "":
			// Plain text spans carry no markup.
		default:
			c.openInline(class)
		}
	}
}

func (c *usfmWriter) closeElement(n *html.Node) {
	class := classOf(n)
	switch n.Data {
	case "p":
		c.flushLine()
		c.mono = false
		c.characterStyles = nil
	case "span":
		if c.mono || class == "" || class == verseStyle {
			return
		}
		// Close stacked styles in reverse order, embedded except the
		// outermost.
		classes := strings.Split(class, styleSeparator)
		c.characterStyles = removeAll(c.characterStyles, classes)
		for offset := len(classes) - 1; offset >= 0; offset-- {
			embedded := offset > 0 || len(c.characterStyles) > 0
			c.currentLine += usfm.ClosingUsfm(classes[offset], embedded)
		}
	}
}

func (c *usfmWriter) openInline(class string) {
	// Character style spans may stack, like <span class="i-add0nd">:
	// any style after the first is embedded.
	classes := strings.Split(class, styleSeparator)
	for offset, cl := range classes {
		embedded := len(c.characterStyles)+offset > 0
		c.currentLine += usfm.OpeningUsfm(cl, embedded)
	}
	if class != verseStyle {
		c.characterStyles = append(c.characterStyles, classes...)
	}
}

func (c *usfmWriter) flushLine() {
	line := strings.TrimSpace(c.currentLine)
	if line != "" {
		c.output = append(c.output, line)
	}
	c.currentLine = ""
}

func removeAll(values, remove []string) []string {
	var out []string
	for _, v := range values {
		removed := false
		for _, r := range remove {
			if v == r {
				removed = true
				break
			}
		}
		if !removed {
			out = append(out, v)
		}
	}
	return out
}
