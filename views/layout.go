package views

import (
	"context"

	"github.com/a-h/templ"
)

// Page wraps body in the document shell.
func Page(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, b *buf) error {
		b.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`).text(title).raw(`</title>`,
			`<link rel="stylesheet" href="/static/app.css">`,
			`<script type="module" src="`, DatastarScript, `"></script>`,
			`</head><body><div id="toast" aria-live="polite"></div>`)
		if err := renderInto(ctx, b, body); err != nil {
			return err
		}
		b.raw(`</body></html>`)
		return nil
	})
}

// Toast is a transient error message patched into #toast.
func Toast(message string) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<div class="toast toast-error" role="alert">`).text(message).raw(`</div>`)
		return nil
	})
}
