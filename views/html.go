// Package views renders the application's HTML as templ components.
package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// DatastarScript is the client runtime the live screens depend on.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// buf collects markup; attribute and text values go through templ's escaper.
type buf struct {
	strings.Builder
}

func (b *buf) raw(parts ...string) *buf {
	for _, p := range parts {
		b.WriteString(p)
	}
	return b
}

func (b *buf) text(s string) *buf {
	b.WriteString(templ.EscapeString(s))
	return b
}

func component(fn func(ctx context.Context, b *buf) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b buf
		if err := fn(ctx, &b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func renderInto(ctx context.Context, b *buf, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, &b.Builder)
}

// jsString quotes s for use inside a single-quoted Datastar expression.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "<", `\x3c`)
	return "'" + r.Replace(s) + "'"
}
