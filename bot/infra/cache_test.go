package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	values map[string]string
	fail   bool
}

func newMemKV() *memKV { return &memKV{values: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	if m.fail {
		return "", errors.New("down")
	}
	return m.values[key], nil
}

func (m *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if m.fail {
		return errors.New("down")
	}
	m.values[key] = value
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) { return 0, nil }
func (m *memKV) Expire(context.Context, string, time.Duration) error {
	return nil
}
func (m *memKV) Del(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}
func (m *memKV) DBSize(context.Context) (int64, error) { return int64(len(m.values)), nil }

func TestKVReplyCache_FillsOnceThenServesCached(t *testing.T) {
	kv := newMemKV()
	c := &KVReplyCache{Store: kv}

	fills := 0
	fill := func(context.Context) (string, error) {
		fills++
		return "reply", nil
	}

	out, err := c.GetOrFill(context.Background(), "k", time.Minute, fill)
	require.NoError(t, err)
	assert.Equal(t, "reply", out)

	out, err = c.GetOrFill(context.Background(), "k", time.Minute, fill)
	require.NoError(t, err)
	assert.Equal(t, "reply", out)
	assert.Equal(t, 1, fills)
}

func TestKVReplyCache_EmptyResultsAreNotCached(t *testing.T) {
	kv := newMemKV()
	c := &KVReplyCache{Store: kv}

	fills := 0
	fill := func(context.Context) (string, error) {
		fills++
		return "", nil
	}

	_, _ = c.GetOrFill(context.Background(), "k", time.Minute, fill)
	_, _ = c.GetOrFill(context.Background(), "k", time.Minute, fill)
	assert.Equal(t, 2, fills)
}

func TestKVReplyCache_DegradesWithoutStore(t *testing.T) {
	var c *KVReplyCache
	out, err := c.GetOrFill(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", out)

	broken := &KVReplyCache{Store: &memKV{fail: true}}
	out, err = broken.GetOrFill(context.Background(), "k", time.Minute, func(context.Context) (string, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", out)
}
