package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnlyLastCallRuns(t *testing.T) {
	d := New(20 * time.Millisecond)
	var last atomic.Int32
	var calls atomic.Int32

	for i := int32(1); i <= 5; i++ {
		n := i
		d.Do(func() {
			calls.Add(1)
			last.Store(n)
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestCancelDropsPendingCall(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())

	d.Do(func() { calls.Add(1) })
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStopRejectsFutureCalls(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Stop()

	assert.False(t, d.Do(func() { calls.Add(1) }))
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
