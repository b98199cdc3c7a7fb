package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_MaxRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Equal(t, 4, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error {
		return errors.New("error")
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
