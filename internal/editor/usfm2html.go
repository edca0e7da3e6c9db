package editor

import (
	stdhtml "html"
	"strings"

	"github.com/davidrees/scriptorium/core/usfm"
)

// UsfmToHTML converts USFM code to the HTML the editor loads: one <p>
// per USFM paragraph carrying its block class, verse numbers and
// character styles as classed <span> elements, and unknown markers
// preserved verbatim in a monospace paragraph.
func UsfmToHTML(code string) string {
	c := &htmlWriter{}
	items := usfm.MarkersAndText(strings.TrimSpace(code))
	for i := 0; i < len(items); i++ {
		item := items[i]
		if !usfm.IsMarker(item) {
			c.addText(item)
			continue
		}
		opening := usfm.IsOpeningMarker(item)
		embedded := usfm.IsEmbeddedMarker(item)
		marker := usfm.Marker(item)
		switch {
		case paragraphMarkers[marker] && opening:
			c.closeTextStyle(false)
			c.newParagraph(marker)
		case marker == verseStyle && opening:
			c.closeTextStyle(false)
			// A space before the verse number when the paragraph
			// already carries text.
			if c.paragraphContent != "" {
				c.addText(" ")
			}
			c.openTextStyle(verseStyle, false)
			var following string
			if i+1 < len(items) && !usfm.IsMarker(items[i+1]) {
				following = items[i+1]
			}
			number := usfm.PeekVerseNumber(following)
			c.addText(number)
			c.closeTextStyle(false)
			c.addText(" ")
			// Put the text after the verse number back for the next
			// iteration.
			if following != "" {
				rest := following
				if pos := strings.Index(rest, number); pos >= 0 {
					rest = rest[pos+len(number):]
				}
				items[i+1] = strings.TrimLeft(rest, " ")
			}
		case characterMarkers[marker]:
			if opening {
				c.openTextStyle(marker, embedded)
			} else {
				c.closeTextStyle(embedded)
			}
		default:
			c.closeTextStyle(false)
			c.outputAsIs(marker, opening)
		}
	}
	c.closeParagraph()
	return c.b.String()
}

type htmlWriter struct {
	b                strings.Builder
	paragraphOpen    bool
	paragraphContent string
	textStyles       []string
}

func (c *htmlWriter) newParagraph(style string) {
	c.closeParagraph()
	c.b.WriteString(`<p class="` + classPrefixBlock + style + `">`)
	c.paragraphOpen = true
	c.paragraphContent = ""
}

func (c *htmlWriter) closeParagraph() {
	if !c.paragraphOpen {
		return
	}
	// An empty paragraph needs a break or the browser shows nothing.
	if c.paragraphContent == "" {
		c.b.WriteString("<br/>")
	}
	c.b.WriteString("</p>")
	c.paragraphOpen = false
}

func (c *htmlWriter) addText(text string) {
	if text == "" {
		return
	}
	if !c.paragraphOpen {
		c.newParagraph("p")
	}
	if len(c.textStyles) > 0 {
		class := classPrefixInline + strings.Join(c.textStyles, styleSeparator)
		c.b.WriteString(`<span class="` + class + `">`)
	} else {
		c.b.WriteString("<span>")
	}
	c.b.WriteString(stdhtml.EscapeString(text))
	c.b.WriteString("</span>")
	c.paragraphContent += text
}

func (c *htmlWriter) openTextStyle(style string, embed bool) {
	if !embed {
		c.textStyles = nil
	}
	c.textStyles = append(c.textStyles, style)
}

func (c *htmlWriter) closeTextStyle(embed bool) {
	if len(c.textStyles) > 0 {
		c.textStyles = c.textStyles[:len(c.textStyles)-1]
	}
	if !embed {
		c.textStyles = nil
	}
}

// outputAsIs renders a marker without a known style as verbatim USFM in
// a monospace paragraph.
func (c *htmlWriter) outputAsIs(marker string, opening bool) {
	if opening {
		c.newParagraph(monoStyle)
		c.addText(usfm.OpeningUsfm(marker, false))
	} else {
		c.addText(usfm.ClosingUsfm(marker, false))
	}
}
