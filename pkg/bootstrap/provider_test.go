package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToggleFile = `{
  "toggles": [
    {
      "name": "demoApp.step1",
      "enabled": true,
      "impressionData": false,
      "variant": {
        "name": "blue",
        "enabled": true,
        "payload": { "type": "string", "value": "#0000CC" }
      }
    },
    { "name": "demoApp.step2", "enabled": false }
  ]
}`

const invalidToggleFile = `{
  "toggles": [
    { "enabled": true }
  ]
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toggles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidFile(t *testing.T) {
	p := NewProvider(writeFile(t, validToggleFile), nil)

	toggles, err := p.Load()
	require.NoError(t, err)
	require.Len(t, toggles, 2)
	assert.Equal(t, "demoApp.step1", toggles[0].Name)
	assert.True(t, toggles[0].Enabled)
	assert.Equal(t, "blue", toggles[0].Variant.Name)
	require.NotNil(t, toggles[0].Variant.Payload)
	assert.Equal(t, "#0000CC", toggles[0].Variant.Payload.Value)
	assert.False(t, toggles[1].Enabled)
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	p := NewProvider(writeFile(t, invalidToggleFile), nil)

	_, err := p.Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	p := NewProvider(writeFile(t, `{"toggles": [`), nil)

	_, err := p.Load()
	assert.Error(t, err)
}

func TestLoadRequiresPath(t *testing.T) {
	p := NewProvider("", nil)

	_, err := p.Load()
	assert.Error(t, err)
}

func TestGetAllTogglesReturnsCopy(t *testing.T) {
	p := NewProvider(writeFile(t, validToggleFile), nil)
	_, err := p.Load()
	require.NoError(t, err)

	first := p.GetAllToggles()
	first[0].Name = "mutated"

	assert.Equal(t, "demoApp.step1", p.GetAllToggles()[0].Name)
}
