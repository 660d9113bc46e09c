package render

import (
	"bytes"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style used for code blocks.
const HighlightStyle = "github"

var formatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// highlight writes code tokenized for lang as class-annotated spans. It
// reports false when lang is unknown or tokenizing fails, leaving buf as it was.
func highlight(buf *bytes.Buffer, lang, code string) bool {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return false
	}
	var out bytes.Buffer
	if err := formatter.Format(&out, styles.Get(HighlightStyle), it); err != nil {
		return false
	}
	buf.Write(out.Bytes())
	return true
}

// WriteHighlightCSS writes the stylesheet for highlighted code blocks.
func WriteHighlightCSS(w io.Writer) error {
	return formatter.WriteCSS(w, styles.Get(HighlightStyle))
}
