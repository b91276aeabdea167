package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLaunch_RunningAndTracked(t *testing.T) {
	started := time.Unix(100, 0)

	direct := Launch{Strategy: LaunchDirect, StartedAt: started}
	require.True(t, direct.Tracked())
	require.True(t, direct.Running())

	direct.ExitedAt = started.Add(time.Minute)
	require.False(t, direct.Running())

	require.False(t, Launch{Strategy: LaunchShell, StartedAt: started}.Tracked())
}
