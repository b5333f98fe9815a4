package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dmorgan81/imagegen/internal/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, status int, body string) (string, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, &calls
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGenerateSavesImage(t *testing.T) {
	url, calls := newRelay(t, http.StatusOK, `{"image":"data:image/png;base64,aGVsbG8="}`)
	dir := t.TempDir()

	stdout, _, err := run(t, "generate", "--relay-url", url, "--out", dir, "a red fox in snow")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, stdout, controller.MsgGenerated)
	assert.Contains(t, stdout, controller.MsgDownloaded)

	matches, err := filepath.Glob(filepath.Join(dir, "generated-image-*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, stdout, filepath.Base(matches[0]))

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGenerateNoExport(t *testing.T) {
	url, _ := newRelay(t, http.StatusOK, `{"image":"data:image/png;base64,aGVsbG8="}`)
	dir := t.TempDir()

	stdout, _, err := run(t, "generate", "--relay-url", url, "--out", dir, "--no-export", "-p", "a red fox in snow")
	require.NoError(t, err)
	assert.NotContains(t, stdout, controller.MsgDownloaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateReportsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"AI gateway error: 429","kind":"rate_limited"}`, controller.MsgRateLimited},
		{"payment required", http.StatusPaymentRequired, `{"error":"AI gateway error: 402","kind":"payment_required"}`, controller.MsgPaymentRequired},
		{"no image", http.StatusInternalServerError, `{"error":"No image generated","kind":"malformed_upstream_response"}`, controller.MsgFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, _ := newRelay(t, tt.status, tt.body)

			_, stderr, err := run(t, "generate", "--relay-url", url, "--out", t.TempDir(), "a red fox in snow")
			require.Error(t, err)
			assert.True(t, errors.As(err, new(reportedError)))
			assert.Contains(t, stderr, tt.msg)
		})
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	url, calls := newRelay(t, http.StatusOK, `{}`)

	_, stderr, err := run(t, "generate", "--relay-url", url, "   ")
	require.Error(t, err)
	assert.Zero(t, calls.Load())
	assert.Contains(t, strings.TrimSpace(stderr), controller.MsgEmptyPrompt)
}
