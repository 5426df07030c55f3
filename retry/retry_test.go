package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSleeper records sleeps without waiting.
type countingSleeper struct {
	calls  int
	delays []time.Duration
}

func (s *countingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.calls++
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func failingOp(failures int, attempts *int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*attempts++
		if *attempts <= failures {
			return "", errors.New("temporary error")
		}
		return "ok", nil
	}
}

func TestDo_Success(t *testing.T) {
	s := &countingSleeper{}
	attempts := 0

	v, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Second, Sleep: s.sleep}, failingOp(0, &attempts))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, attempts, "should succeed on first try")
	assert.Equal(t, 0, s.calls)
}

func TestDo_FailuresThenSuccess(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		maxAttempts int
		wantOK      bool
		wantSleeps  int
	}{
		{"no failures", 0, 3, true, 0},
		{"one failure", 1, 3, true, 1},
		{"two failures", 2, 3, true, 2},
		{"failures equal attempts", 3, 3, false, 2},
		{"failures exceed attempts", 5, 3, false, 2},
		{"single attempt fails", 1, 1, false, 0},
		{"five attempts four failures", 4, 5, true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countingSleeper{}
			attempts := 0
			p := Policy{MaxAttempts: tt.maxAttempts, Delay: 2 * time.Second, Sleep: s.sleep}

			v, err := Do(context.Background(), p, failingOp(tt.failures, &attempts))

			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, "ok", v)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.maxAttempts, attempts, "should attempt exactly maxAttempts times")
			}
			assert.Equal(t, tt.wantSleeps, s.calls)
			for _, d := range s.delays {
				assert.Equal(t, 2*time.Second, d, "delay is fixed")
			}
		})
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	s := &countingSleeper{}
	attempts := 0
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}

	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Sleep: s.sleep}, func(context.Context) (int, error) {
		e := errs[attempts]
		attempts++
		return 0, e
	})
	assert.Equal(t, errs[2], err)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Run(ctx, Policy{MaxAttempts: 10, Delay: 10 * time.Millisecond}, func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_RealTimerWaits(t *testing.T) {
	attempts := 0
	start := time.Now()

	err := Run(context.Background(), Policy{MaxAttempts: 3, Delay: 20 * time.Millisecond}, func(context.Context) error {
		attempts++
		return errors.New("error")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "two waits between three attempts")
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		err := Run(context.Background(), Policy{MaxAttempts: n}, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	}
}

func TestPolicy_WithAttempts(t *testing.T) {
	p := DefaultPolicy.WithAttempts(5)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 3, DefaultPolicy.MaxAttempts, "original unchanged")
	assert.Equal(t, 2*time.Second, p.Delay)
}
