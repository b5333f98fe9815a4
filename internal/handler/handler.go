package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/param"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Handler is the stateless relay between callers and the image gateway.
// One invocation makes at most one upstream call.
type Handler struct {
	fetcher   param.Fetcher
	keyName   string
	generator image.Generator
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		fetcher:   do.MustInvoke[param.Fetcher](i),
		keyName:   do.MustInvokeNamed[string](i, "key_name"),
		generator: do.MustInvoke[image.Generator](i),
	}, nil
}

// Relay validates a JSON request body, generates the image and returns the
// status and envelope to send back. It never panics or returns raw errors.
func (h *Handler) Relay(ctx context.Context, body []byte) (status int, env relay.Envelope) {
	log := log.FromContextOrDiscard(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("relay panicked", "panic", fmt.Sprint(r))
			status, env = http.StatusInternalServerError, relay.Failure(fault.NewUnexpected("An unexpected error occurred", nil))
		}
	}()

	prompt, err := parsePrompt(body)
	if err != nil {
		log.Warn("rejecting request", "error", err)
		return fault.StatusOf(err), relay.Failure(err)
	}

	key, err := h.fetcher.Fetch(ctx, h.keyName)
	if err != nil {
		log.Error("credential unavailable", "name", h.keyName, "error", err)
		err = fault.NewConfiguration("Server configuration error", err)
		return fault.StatusOf(err), relay.Failure(err)
	}

	img, err := h.generator.Generate(ctx, key, image.Params{Prompt: prompt})
	if err == nil && img == "" {
		err = fault.NewMalformed("No image generated")
	}
	if err != nil {
		log.Error("generation failed", "kind", fault.KindOf(err), "error", err)
		return fault.StatusOf(err), relay.Failure(err)
	}

	log.Info("image generated", "size", len(img))
	return http.StatusOK, relay.Success(img)
}

func parsePrompt(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fault.NewValidation("Invalid request body")
	}
	prompt := gjson.GetBytes(body, "prompt")
	if prompt.Type != gjson.String || prompt.Str == "" {
		return "", fault.NewValidation("Prompt is required")
	}
	return prompt.Str, nil
}

type response struct {
	status  int
	headers map[string]string
	body    string
}

// dispatch routes one request by method. Both the Lambda and the net/http
// entry points go through here so they answer identically.
func (h *Handler) dispatch(ctx context.Context, method string, body []byte) response {
	headers := corsHeaders()

	switch method {
	case http.MethodOptions:
		return response{status: http.StatusOK, headers: headers}
	case http.MethodPost:
		status, env := h.Relay(ctx, body)
		return encode(status, headers, env)
	default:
		err := fault.New(fault.Validation, http.StatusMethodNotAllowed, "Method not allowed", nil)
		headers["Allow"] = "POST, OPTIONS"
		return encode(fault.StatusOf(err), headers, relay.Failure(err))
	}
}

func corsHeaders() map[string]string {
	return lo.Assign(relay.CORSHeaders)
}

func encode(status int, headers map[string]string, env relay.Envelope) response {
	headers["Content-Type"] = "application/json"
	data, err := json.Marshal(env)
	if err != nil {
		return response{
			status:  http.StatusInternalServerError,
			headers: headers,
			body:    `{"error":"An unexpected error occurred","kind":"unexpected"}`,
		}
	}
	return response{status: status, headers: headers, body: string(data)}
}
