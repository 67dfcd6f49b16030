package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/requestid"
)

// ErrorPageParams is passed to the error page view.
type ErrorPageParams struct {
	StatusCode int
	Message    string
	RequestID  string
}

// ErrorHandlerConfig supplies the views used to render errors.
type ErrorHandlerConfig struct {
	// ErrorPage renders full pages for regular requests.
	ErrorPage func(ErrorPageParams) TemplComponent
	// ErrorToast renders a notice patched into ToastTarget for Datastar requests.
	ErrorToast  func(message string) TemplComponent
	ToastTarget string
}

func classify(err error) (int, string) {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return http.StatusUnprocessableEntity, strings.Join(valErr.Messages(), ". ")
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message
	}
	return http.StatusInternalServerError, ErrInternal.Message
}

// NewErrorHandler logs the error at a level matching its class and renders it
// as a toast for Datastar requests or as a full page otherwise.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toast"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, message := classify(err)
		reqID := requestid.FromContext(r.Context())

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(reqID),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		var resp Response
		switch {
		case IsDataStar(r) && cfg.ErrorToast != nil:
			resp = Templ(cfg.ErrorToast(message), WithTarget(cfg.ToastTarget), WithPatchMode(PatchInner))
		case cfg.ErrorPage != nil:
			resp = TemplWithStatus(status, cfg.ErrorPage(ErrorPageParams{
				StatusCode: status,
				Message:    message,
				RequestID:  reqID,
			}))
		default:
			http.Error(ctx.ResponseWriter(), message, status)
			return
		}

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.RequestID(reqID), logger.Error(renderErr))
		}
	}
}
