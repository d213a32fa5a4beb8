package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	rendered, err := exporter.Render(Document{
		Title: "Blood Panel",
		Meta: []MetaLine{
			{Label: "Category", Value: "Lab"},
			{Label: "Tags", Value: "blood, routine"},
		},
		Body: "Hemoglobin 13.2 g/dL\nWBC 5.6",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rendered), "%PDF"))
	assert.Greater(t, len(rendered), 500)
}

func TestPDFExporterRequiresTitle(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Document{Body: "text"})
	require.Error(t, err)
}
