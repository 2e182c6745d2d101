package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStartIsExclusive(t *testing.T) {
	manager := NewManager(nil, 10*time.Millisecond)

	require.NoError(t, manager.Start())
	defer manager.Stop()

	assert.Error(t, manager.Start())
}

func TestManagerHealthReportsCycles(t *testing.T) {
	manager := NewManager(nil, 5*time.Millisecond)

	assert.False(t, manager.Health().Running)
	assert.Nil(t, manager.Health().LastCycleTime)

	require.NoError(t, manager.Start())
	defer manager.Stop()

	assert.Eventually(t, func() bool {
		health := manager.Health()
		return health.Running && health.LastCycleTime != nil
	}, time.Second, 5*time.Millisecond)
}

func TestManagerStopWaitsAndAllowsRestart(t *testing.T) {
	manager := NewManager(nil, 5*time.Millisecond)

	require.NoError(t, manager.Start())
	manager.Stop()
	assert.False(t, manager.Health().Running)

	// Stop on a stopped manager is a no-op.
	manager.Stop()

	require.NoError(t, manager.Start())
	manager.Stop()
}
