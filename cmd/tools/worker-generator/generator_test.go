package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"studyabroad-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleActivity() *registry.Activity {
	return &registry.Activity{
		ID:          "rank-scholarships",
		DisplayName: "Rank Scholarships",
		Description: "orders scholarships by fit.",
		Category:    "discovery",
		TaskType:    "rank-scholarships",
		Timeout:     "20s",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"userId"},
			"properties": map[string]interface{}{
				"userId":      map[string]interface{}{"type": "string"},
				"max_results": map[string]interface{}{"type": []interface{}{"integer", "null"}},
				"tier":        map[string]interface{}{"type": "string", "enum": []interface{}{"dream", "safe"}},
			},
		},
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"scholarships": map[string]interface{}{"type": "array"},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()

	dir, files, err := generate(sampleActivity(), root, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "discovery", "rank-scholarships"), dir)
	require.Len(t, files, 4)

	fset := token.NewFileSet()
	for _, f := range files {
		parsed, err := parser.ParseFile(fset, f, nil, parser.ParseComments)
		require.NoError(t, err, f)
		assert.Equal(t, "rankscholarships", parsed.Name.Name)
	}

	models, err := os.ReadFile(filepath.Join(dir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "MaxResults *int")
	assert.Contains(t, string(models), `json:"userId"`)
	assert.Contains(t, string(models), `json:"tier,omitempty"`)
	assert.Contains(t, string(models), `Enum: []string{"dream", "safe"}`)

	cfg, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "20000 * time.Millisecond")

	_, _, err = generate(sampleActivity(), root, false)
	assert.ErrorContains(t, err, "already exists")
	_, _, err = generate(sampleActivity(), root, true)
	assert.NoError(t, err)
}

func TestGenerate_RegisteredActivities(t *testing.T) {
	reg, err := registry.LoadRegistry("../../../configs/activity-registry.json")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Activities)

	root := t.TempDir()
	for i := range reg.Activities {
		act := reg.Activities[i]
		t.Run(act.ID, func(t *testing.T) {
			_, files, err := generate(&act, root, true)
			require.NoError(t, err)
			for _, f := range files {
				_, err := parser.ParseFile(token.NewFileSet(), f, nil, 0)
				assert.NoError(t, err, f)
			}
		})
	}
}

func TestGenerate_Rejects(t *testing.T) {
	act := sampleActivity()
	act.Timeout = "soon"
	_, _, err := generate(act, t.TempDir(), false)
	assert.ErrorContains(t, err, "timeout")

	act = sampleActivity()
	act.Category = ""
	_, _, err = generate(act, t.TempDir(), false)
	assert.ErrorContains(t, err, "category")
}

func TestGoName(t *testing.T) {
	for in, want := range map[string]string{
		"userId":         "UserID",
		"target_country": "TargetCountry",
		"accessToken":    "AccessToken",
		"profile-url":    "ProfileURL",
	} {
		assert.Equal(t, want, goName(in), in)
	}
}
