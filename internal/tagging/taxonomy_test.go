package tagging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpulse/internal/tagging"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := tagging.Default()

	assert.NotEmpty(t, tax.Version)
	assert.Equal(t, "Customer Satisfaction", tax.Categories[0].Name)
	labels := tax.Labels()
	assert.Equal(t, "Other", labels[len(labels)-1])
	assert.Len(t, labels, 10)
}

func TestParse_PriorityMovedFirst(t *testing.T) {
	tax, err := tagging.Parse([]byte(`
version: "1"
priority: B
categories:
  - name: A
    triggers: [a]
  - name: C
    triggers: [c]
  - name: B
    triggers: [b]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C", "Other"}, tax.Labels())
	assert.Equal(t, 3, tax.ShortText.MaxTokens)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"no version":       "priority: A\ncategories:\n  - name: A\n    triggers: [a]\n",
		"no categories":    "version: \"1\"\npriority: A\n",
		"unknown priority": "version: \"1\"\npriority: Z\ncategories:\n  - name: A\n    triggers: [a]\n",
		"duplicate":        "version: \"1\"\npriority: A\ncategories:\n  - name: A\n    triggers: [a]\n  - name: A\n    triggers: [b]\n",
		"no triggers":      "version: \"1\"\npriority: A\ncategories:\n  - name: A\n",
		"reserved other":   "version: \"1\"\npriority: A\ncategories:\n  - name: A\n    triggers: [a]\n  - name: Other\n    triggers: [b]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tagging.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FileOverride(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tax.yaml")
	require.NoError(t, os.WriteFile(p, []byte("version: \"x\"\npriority: A\ncategories:\n  - name: A\n    triggers: [a]\n"), 0o600))

	tax, err := tagging.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "x", tax.Version)

	def, err := tagging.Load("")
	require.NoError(t, err)
	assert.Equal(t, tagging.Default().Version, def.Version)

	_, err = tagging.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
