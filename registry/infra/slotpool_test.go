package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPool_BlocksWhenFullAndFreesOnRelease(t *testing.T) {
	p := NewSlotPool(1)

	release, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // release duplicado não pode liberar vaga extra

	r2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer r2()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	_, err = p.Acquire(ctx2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
