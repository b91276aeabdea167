package display

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"safety-vision/internal/domain/entity"
)

func TestHeadless_StopsAfterMaxFrames(t *testing.T) {
	h := NewHeadless(2, zaptest.NewLogger(t).Sugar())

	require.False(t, h.StopRequested())
	require.NoError(t, h.Present(&entity.Frame{}))
	require.False(t, h.StopRequested())
	require.NoError(t, h.Present(&entity.Frame{}))
	require.True(t, h.StopRequested())
	require.Equal(t, int64(2), h.Presented())
	require.NoError(t, h.Close())
}

func TestHeadless_Unlimited(t *testing.T) {
	h := NewHeadless(0, zaptest.NewLogger(t).Sugar())
	for i := 0; i < 10; i++ {
		require.NoError(t, h.Present(&entity.Frame{}))
	}
	require.False(t, h.StopRequested())
}
