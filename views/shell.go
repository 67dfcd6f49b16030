package views

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/pianoxl/modules/account"
)

// ShellParams seeds the live screen of a page load.
type ShellParams struct {
	Path   string
	Intent string
	Notice *account.Notice
}

// Shell is the document for every screen path. It shows the loading screen
// and opens the live stream that renders and updates the routed screen.
func Shell(p ShellParams) templ.Component {
	q := url.Values{"path": {p.Path}}
	if p.Intent != "" {
		q.Set("intent", p.Intent)
	}
	live := "/live?" + q.Encode()

	body := component(func(ctx context.Context, b *buf) error {
		if p.Notice != nil {
			if err := renderInto(ctx, b, NoticeBanner(*p.Notice)); err != nil {
				return err
			}
		}
		b.raw(`<main id="screen" data-init="@get(`).text(jsString(live)).raw(`)">`)
		if err := renderInto(ctx, b, Loading()); err != nil {
			return err
		}
		b.raw(`</main>`)
		return nil
	})
	return Page("Piano XL", body)
}

// NoticeBanner shows a flash notice.
func NoticeBanner(n account.Notice) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<div class="notice notice-`).text(string(n.Kind)).raw(`" role="status">`).text(n.Text).raw(`</div>`)
		return nil
	})
}
