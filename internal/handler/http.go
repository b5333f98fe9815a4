package handler

import (
	"io"
	"net/http"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// ServeHTTP exposes the relay on a plain HTTP server for local use.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContextOrDiscard(r.Context()).WithGroup("Handler").With(
		"request_id", uuid.NewString(),
		"method", r.Method,
		"remote", r.RemoteAddr,
	)
	ctx := log.NewContext(r.Context(), logger)
	logger.Info("handling http request")

	var res response
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("unreadable body", "error", err)
		res = encode(http.StatusBadRequest, corsHeaders(), relay.Failure(fault.NewValidation("Invalid request body")))
	} else {
		res = h.dispatch(ctx, r.Method, body)
	}

	for k, v := range res.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(res.status)
	if res.body != "" {
		_, _ = io.WriteString(w, res.body)
	}
}
