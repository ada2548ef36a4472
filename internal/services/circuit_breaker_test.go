package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1, time.Minute)
	fail := func() error { return errors.New("model unavailable") }

	for i := 0; i < 3; i++ {
		assert.Error(t, cb.Call(fail))
	}
	assert.Equal(t, StateOpen, cb.GetState())

	// 打开后请求直接被拒绝，fn不会被执行
	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1, time.Minute)
	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	assert.Error(t, cb.Call(fail))
	assert.Error(t, cb.Call(fail))
	assert.NoError(t, cb.Call(ok))
	assert.Error(t, cb.Call(fail))
	assert.Error(t, cb.Call(fail))

	// 中间的成功清零了计数，未达到阈值
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 2, 10*time.Millisecond)

	assert.Error(t, cb.Call(func() error { return errors.New("boom") }))
	assert.Equal(t, StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)

	// 超时后进入半开，连续成功达到阈值后关闭
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.GetState())
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 2, 10*time.Millisecond)

	assert.Error(t, cb.Call(func() error { return errors.New("boom") }))
	time.Sleep(20 * time.Millisecond)

	assert.Error(t, cb.Call(func() error { return errors.New("still down") }))
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreakerError_Unwrap(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1, time.Minute)
	cause := errors.New("timeout")

	err := cb.Call(func() error { return cause })
	assert.ErrorIs(t, err, cause)

	var cbErr *CircuitBreakerError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "test", cbErr.Name)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
