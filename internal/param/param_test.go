package param

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFetcher(t *testing.T) {
	env := map[string]string{"SET": "value", "EMPTY": ""}
	f := &EnvFetcher{Lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	v, err := f.Fetch(context.Background(), "SET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	for _, name := range []string{"EMPTY", "MISSING"} {
		_, err := f.Fetch(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, name)
		assert.Contains(t, err.Error(), name)
	}
}

func TestEnvFetcherReadsAtCallTime(t *testing.T) {
	t.Setenv("IMAGEGEN_TEST_KEY", "")
	f := NewEnvFetcher()

	_, err := f.Fetch(context.Background(), "IMAGEGEN_TEST_KEY")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Setenv("IMAGEGEN_TEST_KEY", "rotated")
	v, err := f.Fetch(context.Background(), "IMAGEGEN_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "rotated", v)
}

type fakeSSM struct {
	out *ssm.GetParameterOutput
	err error
	in  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestParameterStoreFetcher(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("secret")}}}
		v, err := (&ParameterStoreFetcher{client: api}).Fetch(context.Background(), "/imagegen/key")
		require.NoError(t, err)
		assert.Equal(t, "secret", v)
		assert.Equal(t, "/imagegen/key", aws.ToString(api.in.Name))
		assert.True(t, aws.ToBool(api.in.WithDecryption))
	})

	t.Run("not found", func(t *testing.T) {
		api := &fakeSSM{err: &types.ParameterNotFound{}}
		_, err := (&ParameterStoreFetcher{client: api}).Fetch(context.Background(), "/imagegen/key")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty value", func(t *testing.T) {
		api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}}
		_, err := (&ParameterStoreFetcher{client: api}).Fetch(context.Background(), "/imagegen/key")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other failure", func(t *testing.T) {
		boom := errors.New("throttled")
		api := &fakeSSM{err: boom}
		_, err := (&ParameterStoreFetcher{client: api}).Fetch(context.Background(), "/imagegen/key")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
