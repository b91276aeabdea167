package vision

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReleaseWhenIdle_NoPendingRead(t *testing.T) {
	var released atomic.Int32
	done, err := releaseWhenIdle[int](nil, time.Second, func() error {
		released.Add(1)
		return errors.New("close failed")
	}, zap.NewNop().Sugar())

	require.EqualError(t, err, "close failed")
	require.Equal(t, int32(1), released.Load())
	<-done
}

func TestReleaseWhenIdle_WaitsForFinishedRead(t *testing.T) {
	pending := make(chan int, 1)
	pending <- 1

	var released atomic.Int32
	done, err := releaseWhenIdle[int](pending, time.Second, func() error {
		released.Add(1)
		return nil
	}, zap.NewNop().Sugar())

	require.NoError(t, err)
	require.Equal(t, int32(1), released.Load())
	<-done
}

func TestReleaseWhenIdle_StalledReadDefersRelease(t *testing.T) {
	pending := make(chan int, 1)

	var reading atomic.Bool
	reading.Store(true)
	var releasedDuringRead atomic.Bool
	var released atomic.Int32

	done, err := releaseWhenIdle[int](pending, 10*time.Millisecond, func() error {
		if reading.Load() {
			releasedDuringRead.Store(true)
		}
		released.Add(1)
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	// чтение ещё идёт: ресурсы трогать нельзя
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(0), released.Load())

	reading.Store(false)
	pending <- 1

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("release did not happen after the read finished")
	}
	require.Equal(t, int32(1), released.Load())
	require.False(t, releasedDuringRead.Load())
}
