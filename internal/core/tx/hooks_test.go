package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRunImmediatelyWithoutTransaction(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)

	boom := errors.New("boom")
	assert.ErrorIs(t, BeforeCommit(context.Background(), "k", func(context.Context) error { return boom }), boom)
}

func TestAfterCommitWaitsForRun(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())

	var order []int
	AfterCommit(ctx, func(context.Context) { order = append(order, 1) })
	AfterCommit(ctx, func(context.Context) { order = append(order, 2) })
	assert.Empty(t, order)

	hooks.Run(context.Background())
	assert.Equal(t, []int{1, 2}, order)

	hooks.Run(context.Background())
	assert.Equal(t, []int{1, 2}, order, "hooks run once")
}

func TestBeforeCommitDeduplicatesByKey(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())

	calls := map[string]int{}
	add := func(key string) {
		require.NoError(t, BeforeCommit(ctx, key, func(context.Context) error {
			calls[key]++
			return nil
		}))
	}
	add("2026-10")
	add("2026-10")
	add("2026-09")
	assert.Empty(t, calls)

	require.NoError(t, hooks.RunBeforeCommit(ctx))
	assert.Equal(t, map[string]int{"2026-10": 1, "2026-09": 1}, calls)
}

func TestBeforeCommitRunsNestedRegistrations(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())

	var order []string
	require.NoError(t, BeforeCommit(ctx, "", func(ctx context.Context) error {
		order = append(order, "outer")
		return BeforeCommit(ctx, "", func(context.Context) error {
			order = append(order, "inner")
			return nil
		})
	}))
	require.NoError(t, hooks.RunBeforeCommit(ctx))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestBeforeCommitStopsAtFirstError(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())
	boom := errors.New("boom")

	second := false
	require.NoError(t, BeforeCommit(ctx, "", func(context.Context) error { return boom }))
	require.NoError(t, BeforeCommit(ctx, "", func(context.Context) error { second = true; return nil }))

	assert.ErrorIs(t, hooks.RunBeforeCommit(ctx), boom)
	assert.False(t, second)
}
