package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopAlwaysFailsOverToFallback(t *testing.T) {
	var c Client = Noop{}
	_, err := c.Summarize(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	_, err = c.Extract(context.Background(), "some transcript")
	require.Error(t, err)
}

type flakyClient struct {
	fail bool
}

func (f *flakyClient) Summarize(context.Context, []string) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	return "summary", nil
}

func (f *flakyClient) Extract(context.Context, string) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	return "[]", nil
}

func TestBreakerClientPassesThroughOnSuccess(t *testing.T) {
	bc := NewBreakerClient(&flakyClient{fail: false})
	out, err := bc.Summarize(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "summary", out)
}

func TestBreakerClientSurfacesInnerFailure(t *testing.T) {
	bc := NewBreakerClient(&flakyClient{fail: true})
	_, err := bc.Extract(context.Background(), "transcript")
	require.Error(t, err)
}
