package workers

import (
	"testing"

	"studyabroad-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions_FormAValidRegistry(t *testing.T) {
	reg := registry.New()
	for _, d := range Definitions() {
		require.NoError(t, reg.Add(d.Activity("1.0.0")))
	}
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 6)

	lock, ok := reg.Find("lock-university")
	require.True(t, ok)
	assert.Contains(t, lock.ErrorCodes, "LOCK_FAILED")
	assert.Equal(t, "object", lock.InputSchema["type"])
	assert.Contains(t, lock.InputSchema["properties"], "entryPoint")
}
