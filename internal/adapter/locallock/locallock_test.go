package locallock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockExcludesSameKey(t *testing.T) {
	l := New()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "a")
	require.NoError(t, err)

	other, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op

	again, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	again()
	assert.Empty(t, l.locks)
}
