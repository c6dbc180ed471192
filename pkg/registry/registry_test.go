// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-08-01T00:00:00Z",
		Activities: []Activity{
			{
				ID:          "analyze-deals",
				DisplayName: "Analyze Deals",
				Category:    "advisory",
				TaskType:    "analyze-deals",
				ErrorCodes:  []string{"INVALID_INPUT"},
			},
			{
				ID:          "list-projects",
				DisplayName: "List Projects",
				Category:    "marketplace",
				TaskType:    "list-projects",
			},
		},
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")

	require.NoError(t, SaveRegistry(sampleRegistry(), path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", loaded.Version)
	require.Len(t, loaded.Activities, 2)
	assert.Equal(t, "analyze-deals", loaded.Activities[0].ID)
	assert.Equal(t, []string{"INVALID_INPUT"}, loaded.Activities[0].ErrorCodes)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestFindByTaskType(t *testing.T) {
	reg := sampleRegistry()

	activity, found := reg.FindByTaskType("list-projects")
	require.True(t, found)
	assert.Equal(t, "marketplace", activity.Category)

	_, found = reg.FindByTaskType("unknown-task")
	assert.False(t, found)
}
