package templates_test

import (
	"os"
	"path/filepath"
	"testing"

	"esg_platform/esg_hub/report"
	"esg_platform/esg_hub/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := templates.Default()
	require.NotEmpty(t, catalog.List())

	esrs, err := catalog.Get("esrs-full")
	require.NoError(t, err)
	assert.Equal(t, "ESRS", esrs.Standard)

	keys := make([]string, 0)
	for _, s := range esrs.Sections {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, report.SectionNames, keys)

	_, err = catalog.Get("missing")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestCatalogCoversAutoFilledFields(t *testing.T) {
	esrs, err := templates.Default().Get("esrs-full")
	require.NoError(t, err)

	fields := make(map[string]bool)
	for _, s := range esrs.Sections {
		for _, f := range s.Fields {
			fields[report.ProvenanceKey(s.Key, f.Key)] = true
		}
	}

	for _, ref := range report.AutoFields() {
		assert.True(t, fields[report.ProvenanceKey(ref.Section, ref.Field)], "%v.%v", ref.Section, ref.Field)
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	err := os.WriteFile(path, []byte("templates:\n  - id: custom\n    name: Custom\n"), 0644)
	require.NoError(t, err)

	catalog, err := templates.Load(path)
	require.NoError(t, err)
	require.Len(t, catalog.List(), 1)
	assert.Equal(t, "Custom", catalog.List()[0].Name)
}

func TestParseRejectsDuplicateIds(t *testing.T) {
	_, err := templates.Parse([]byte("templates:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)

	_, err = templates.Parse([]byte("templates:\n  - name: no id\n"))
	assert.Error(t, err)
}
