package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/i18n"
)

// renderError writes err as a localized ErrorResponse. Errors without a code
// are logged and reported as INTERNAL_ERROR with no detail.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.AsError(err)
	if !ok || appErr.Code == errors.ErrCodeInternal {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		appErr = errors.New(errors.ErrCodeInternal, "internal error")
	}

	var metadata map[string]any
	if len(appErr.Details) > 0 {
		metadata = make(map[string]any, len(appErr.Details))
		for k, v := range appErr.Details {
			metadata[k] = v
		}
	}
	if appErr.Code == errors.ErrCodeInvalidInput || appErr.Code == errors.ErrCodeInvalidArgument {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["detail"] = appErr.Message
	}

	status := appErr.HTTPStatusCode()
	lang := i18n.FromContext(r.Context())
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		StatusCode: status,
		Code:       string(appErr.Code),
		Message:    i18n.T(lang, appErr.MessageKey(), appErr.Details),
		Metadata:   metadata,
	})
}
