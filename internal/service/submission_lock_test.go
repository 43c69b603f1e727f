package service

import (
	"context"
	"peer_quiz_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "submit:1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "submit:1")
	assert.ErrorIs(t, err, util.ErrLockTimeout)

	unlock()
	unlock2, err := l.Lock(ctx, "submit:1")
	require.NoError(t, err)
	unlock2()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker(time.Second)

	unlock, err := l.Lock(context.Background(), "submit:2")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "submit:2")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLockerWaitsForRelease(t *testing.T) {
	l := NewLocalLocker(time.Second)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "submit:3")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, "submit:3")
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
