// Package render turns post content blocks into HTML as templ components.
package render

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/devemco/folio/blog"
)

// Blocks returns a templ.Component that renders c as HTML.
func Blocks(c blog.Content) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		WriteBlocks(&buf, c)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// WriteBlocks writes the HTML representation of c to buf. All text is escaped.
func WriteBlocks(buf *bytes.Buffer, c blog.Content) {
	c.Walk(&htmlWriter{buf: buf})
}

type htmlWriter struct {
	buf *bytes.Buffer
}

func (h *htmlWriter) text(tag, class, s string) {
	h.buf.WriteString("<" + tag)
	if class != "" {
		h.buf.WriteString(` class="` + class + `"`)
	}
	h.buf.WriteString(">")
	h.buf.WriteString(html.EscapeString(s))
	h.buf.WriteString("</" + tag + ">")
}

func (h *htmlWriter) list(tag string, items []string) {
	h.buf.WriteString("<" + tag + ">")
	for _, item := range items {
		h.text("li", "", item)
	}
	h.buf.WriteString("</" + tag + ">")
}

func (h *htmlWriter) Paragraph(b blog.Paragraph)         { h.text("p", "", b.Text) }
func (h *htmlWriter) Heading2(b blog.Heading2)           { h.text("h2", "", b.Text) }
func (h *htmlWriter) Heading3(b blog.Heading3)           { h.text("h3", "", b.Text) }
func (h *htmlWriter) Callout(b blog.Callout)             { h.text("div", "blog-callout", b.Text) }
func (h *htmlWriter) UnorderedList(b blog.UnorderedList) { h.list("ul", b.Items) }
func (h *htmlWriter) OrderedList(b blog.OrderedList)     { h.list("ol", b.Items) }

func (h *htmlWriter) Code(b blog.Code) {
	lang := strings.ToLower(strings.TrimSpace(b.Language))
	if lang == "" {
		h.buf.WriteString(`<pre class="code-block blog-code"><code>`)
		h.buf.WriteString(html.EscapeString(b.Code))
		h.buf.WriteString("</code></pre>")
		return
	}
	escapedLang := html.EscapeString(lang)
	h.buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + escapedLang + `">` + escapedLang + `</span>`)
	h.buf.WriteString(`<pre class="code-block blog-code"><code class="language-` + escapedLang + `" data-language="` + escapedLang + `">`)
	if !highlight(h.buf, lang, b.Code) {
		h.buf.WriteString(html.EscapeString(b.Code))
	}
	h.buf.WriteString("</code></pre></div>")
}

func (h *htmlWriter) Image(b blog.Image) {
	h.buf.WriteString(`<figure class="blog-figure">`)
	if src := SafeURL(b.Src); src != "" {
		h.buf.WriteString(`<img class="blog-inline-image" src="` + src + `" alt="` + html.EscapeString(b.Alt) + `" loading="lazy" decoding="async"/>`)
	}
	caption := strings.TrimSpace(b.Caption)
	var label, link string
	if b.Source != nil {
		label = strings.TrimSpace(b.Source.Label)
		link = SafeURL(b.Source.URL)
	}
	if caption != "" || label != "" {
		h.buf.WriteString(`<figcaption class="blog-figcaption">`)
		if caption != "" {
			h.text("span", "blog-caption", caption)
		}
		if label != "" {
			h.buf.WriteString(`<span class="blog-source">`)
			if caption != "" {
				h.buf.WriteString(" — ")
			}
			h.buf.WriteString("Source: ")
			if link != "" {
				h.buf.WriteString(`<a href="` + link + `" target="_blank" rel="noopener noreferrer">` + html.EscapeString(label) + `</a>`)
			} else {
				h.text("span", "", label)
			}
			h.buf.WriteString("</span>")
		}
		h.buf.WriteString("</figcaption>")
	}
	h.buf.WriteString("</figure>")
}

// PlainText flattens c to text, one block per line. Code blocks are omitted.
func PlainText(c blog.Content) string {
	var t textWriter
	c.Walk(&t)
	return strings.Join(t.lines, "\n")
}

type textWriter struct {
	lines []string
}

func (t *textWriter) add(s string) {
	if s = strings.TrimSpace(s); s != "" {
		t.lines = append(t.lines, s)
	}
}

func (t *textWriter) Paragraph(b blog.Paragraph) { t.add(b.Text) }
func (t *textWriter) Heading2(b blog.Heading2)   { t.add(b.Text) }
func (t *textWriter) Heading3(b blog.Heading3)   { t.add(b.Text) }
func (t *textWriter) Callout(b blog.Callout)     { t.add(b.Text) }
func (t *textWriter) Code(blog.Code)             {}
func (t *textWriter) Image(b blog.Image)         { t.add(b.Caption) }

func (t *textWriter) UnorderedList(b blog.UnorderedList) {
	for _, item := range b.Items {
		t.add("- " + item)
	}
}

func (t *textWriter) OrderedList(b blog.OrderedList) {
	for _, item := range b.Items {
		t.add("- " + item)
	}
}

// SafeURL validates and sanitizes a URL for use in HTML attributes. Relative
// paths and http, https, mailto and tel URLs pass; anything else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		if strings.HasPrefix(val, "//") {
			return ""
		}
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
