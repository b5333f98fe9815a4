package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const imagePath = "choices.0.message.images.0.image_url.url"

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Modalities []string  `json:"modalities"`
}

// GatewayGenerator talks to an OpenAI-compatible chat completion endpoint
// that can answer with images.
type GatewayGenerator struct {
	Client   *http.Client
	Endpoint string
	Model    string
}

func NewGatewayGenerator(i *do.Injector) (Generator, error) {
	return &GatewayGenerator{
		Client:   do.MustInvoke[*http.Client](i),
		Endpoint: do.MustInvokeNamed[string](i, "gateway_url"),
		Model:    do.MustInvokeNamed[string](i, "gateway_model"),
	}, nil
}

func (g *GatewayGenerator) Generate(ctx context.Context, key string, params Params) (string, error) {
	model := lo.Ternary(params.Model != "", params.Model, g.Model)
	log := log.FromContextOrDiscard(ctx).WithGroup("gateway").With("model", model, "endpoint", g.Endpoint)
	log.Info("requesting image")

	body, err := json.Marshal(completionRequest{
		Model:      model,
		Messages:   []message{{Role: "user", Content: params.Prompt}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return "", fault.NewUnexpected("encoding gateway request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fault.NewUnexpected("building gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fault.NewUpstreamUnavailable("AI gateway unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fault.NewUpstreamUnavailable("reading AI gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("gateway returned error", "status", resp.StatusCode, "body", string(data))
		return "", fault.FromStatus(resp.StatusCode, fmt.Sprintf("AI gateway error: %d", resp.StatusCode))
	}

	url := gjson.GetBytes(data, imagePath)
	if url.Type != gjson.String || url.Str == "" {
		log.Error("gateway response has no image", "body_size", len(data))
		return "", fault.NewMalformed("No image generated")
	}

	log.Info("received image", "size", len(url.Str))
	return url.Str, nil
}
