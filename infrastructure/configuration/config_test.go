package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConfiguration tests the configuration package basic functionality
func TestConfiguration(t *testing.T) {
	t.Run("configuration_struct_exists", func(t *testing.T) {
		require.NotNil(t, &C, "Configuration should not be nil")
		require.NotNil(t, &C.App, "App configuration should exist")
		require.NotNil(t, &C.OAuth, "OAuth configuration should exist")
	})

	t.Run("pipeline_defaults_applied", func(t *testing.T) {
		require.Equal(t, "/mnt/accounts", C.Accounts.Dir)
		require.Equal(t, "/mnt/storage", C.Generator.StorageDir)
		require.Equal(t, 30, C.Generator.PollIntervalSeconds)
		require.Equal(t, 30, C.Generator.TimeoutMinutes)
		require.Equal(t, 21600, C.Scheduler.IntervalSeconds)
	})
}
