package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns user-written Markdown (profile bios) into HTML.
// Raw HTML in the source is dropped and unsafe link schemes are blanked.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Strikethrough,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

func (r *Renderer) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}

	var buf bytes.Buffer
	err := r.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
