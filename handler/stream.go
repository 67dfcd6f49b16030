package handler

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// StreamContext is a Context bound to an open Datastar event stream.
type StreamContext interface {
	Context
	SendComponent(component TemplComponent, opts ...TemplOption) error
	Redirect(url string) error
}

// StreamHandler runs for the lifetime of a stream; returning closes it.
type StreamHandler func(ctx StreamContext) error

type streamResponse struct {
	handler StreamHandler
}

func (s streamResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return ErrNotDataStar
	}
	return s.handler(&streamContext{
		Context: NewContext(w, r),
		sse:     datastar.NewSSE(w, r),
	})
}

// Stream opens a Datastar event stream and hands it to h.
func Stream(h StreamHandler) Response {
	return streamResponse{handler: h}
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SendComponent(component TemplComponent, opts ...TemplOption) error {
	return c.sse.PatchElementTempl(component, opts...)
}

func (c *streamContext) Redirect(url string) error {
	return c.sse.Redirect(url)
}
