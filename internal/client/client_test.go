package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client())
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req relay.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a red fox in snow", req.Prompt)

		_ = json.NewEncoder(w).Encode(relay.Success(testImage))
	}))
	defer srv.Close()

	img, err := New(srv.URL, srv.Client()).Generate(context.Background(), "a red fox in snow")
	require.NoError(t, err)
	assert.Equal(t, testImage, img)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   fault.Kind
	}{
		{"kind from envelope", http.StatusTooManyRequests, `{"error":"AI gateway error: 429","kind":"rate_limited"}`, fault.RateLimited},
		{"payment from envelope", http.StatusPaymentRequired, `{"error":"AI gateway error: 402","kind":"payment_required"}`, fault.PaymentRequired},
		{"status fallback 429", http.StatusTooManyRequests, `{"error":"AI gateway error: 429"}`, fault.RateLimited},
		{"status fallback 402", http.StatusPaymentRequired, `{"error":"AI gateway error: 402"}`, fault.PaymentRequired},
		{"non json error", http.StatusBadGateway, `<html>bad gateway</html>`, fault.UpstreamUnavailable},
		{"no image", http.StatusInternalServerError, `{"error":"No image generated","kind":"malformed_upstream_response"}`, fault.MalformedUpstreamResponse},
		{"config", http.StatusInternalServerError, `{"error":"Server configuration error","kind":"configuration"}`, fault.Configuration},
		{"error in 2xx", http.StatusOK, `{"error":"odd"}`, fault.Unexpected},
		{"empty image", http.StatusOK, `{}`, fault.MalformedUpstreamResponse},
		{"unknown kind", http.StatusTooManyRequests, `{"error":"slow down","kind":"throttled"}`, fault.RateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := serve(t, tt.status, tt.body).Generate(context.Background(), "p")
			assert.Empty(t, img)
			require.Error(t, err)
			assert.Equal(t, tt.kind, fault.KindOf(err))
		})
	}
}

func TestGenerateUnclassified(t *testing.T) {
	t.Run("garbage 2xx body", func(t *testing.T) {
		_, err := serve(t, http.StatusOK, `not json`).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.False(t, fault.Classified(err))
	})

	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		_, err := New(srv.URL, nil).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.False(t, fault.Classified(err))
	})
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := serve(t, http.StatusOK, `{}`).Generate(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
}
