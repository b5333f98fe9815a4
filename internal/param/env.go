package param

import (
	"context"
	"fmt"
	"os"

	"github.com/dmorgan81/imagegen/internal/log"
)

// EnvFetcher reads parameters from the process environment on every call,
// so a rotated secret is picked up without a restart.
type EnvFetcher struct {
	Lookup func(string) (string, bool)
}

func NewEnvFetcher() *EnvFetcher {
	return &EnvFetcher{Lookup: os.LookupEnv}
}

func (f *EnvFetcher) Fetch(ctx context.Context, name string) (string, error) {
	log.FromContextOrDiscard(ctx).Debug("reading environment parameter", "name", name)
	if v, ok := f.Lookup(name); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}
