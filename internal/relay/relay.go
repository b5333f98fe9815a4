// Package relay holds the JSON contract spoken between the relay function
// and its browser or CLI callers.
package relay

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmorgan81/imagegen/internal/fault"
)

type Request struct {
	Prompt string `json:"prompt"`
}

// Envelope is the normalized relay response. Exactly one of Image and
// Error is set.
type Envelope struct {
	Image string     `json:"image,omitempty"`
	Error string     `json:"error,omitempty"`
	Kind  fault.Kind `json:"kind,omitempty"`
}

func Success(image string) Envelope {
	return Envelope{Image: image}
}

// Failure builds the error envelope for err. Unclassified errors never
// leak their text.
func Failure(err error) Envelope {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		return Envelope{Error: "An unexpected error occurred", Kind: fault.Unexpected}
	}
	return Envelope{Error: fe.Msg, Kind: fe.Kind}
}

// CORSHeaders are attached to every relay response, preflight included.
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

var errNotDataURI = errors.New("not a base64 data URI")

// ParseDataURI splits data:<mime>;base64,<payload> into its mime type and
// decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNotDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data, nil
}
