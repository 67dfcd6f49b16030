package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
)

// WidgetSrc is the embedded piano document.
const WidgetSrc = "/piano-xl.html"

// forwardScript relays the widget's sign-out request. Only same-origin
// messages shaped {type: "SIGN_OUT"} are forwarded; the server checks both
// again.
const forwardScript = `<script>
window.addEventListener("message", function (event) {
  if (event.origin !== window.location.origin) return;
  var data = event.data;
  if (!data || typeof data !== "object" || data.type !== "SIGN_OUT") return;
  fetch("/widget/message", {
    method: "POST",
    credentials: "same-origin",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({type: "SIGN_OUT"})
  }).then(function (r) { return r.ok ? r.json() : {redirect: "/"}; })
    .then(function (body) { window.location.assign(body.redirect || "/"); });
});
</script>`

type WidgetParams struct {
	Header HeaderParams
}

// Widget hosts the piano in a full-window iframe.
func Widget(p WidgetParams) templ.Component {
	body := component(func(ctx context.Context, b *buf) error {
		if err := renderInto(ctx, b, Header(p.Header)); err != nil {
			return err
		}
		b.raw(`<iframe id="widget" src="`, WidgetSrc, `" title="CHORD-INATOR" allow="autoplay; midi"`,
			` style="border:0;width:100%;height:calc(100vh - 4rem)"></iframe>`, forwardScript)
		return nil
	})
	return Page("CHORD-INATOR", body)
}

// ErrorPage is the full-page error view.
func ErrorPage(status int, message, requestID string) templ.Component {
	body := component(func(_ context.Context, b *buf) error {
		b.raw(`<main class="screen screen-error"><h1>`, strconv.Itoa(status), `</h1><p>`).text(message).raw(`</p>`)
		if requestID != "" {
			b.raw(`<p class="request-id">Request ID: `).text(requestID).raw(`</p>`)
		}
		b.raw(`<a href="/">Back to start</a></main>`)
		return nil
	})
	return Page("Error", body)
}
