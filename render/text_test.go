package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGroups() []Group {
	return []Group{
		{Key: "rc6", Items: []Item{
			{Key: "value", Label: "RC6", Width: 3, Prec: 0, Value: 42, Present: true},
		}},
		{Key: "power", Items: []Item{
			{Key: "GPU", Label: "GPU W", Width: 4, Prec: 2, Present: false},
		}},
	}
}

func TestTextRenderWritesHeaderOnFirstRow(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	require.NoError(t, r.Render(sampleGroups()))

	out := buf.String()
	assert.Contains(t, out, "RC6")
	assert.Contains(t, out, "42")
}

func TestTextRenderOmitsAbsentItemsAsDash(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	require.NoError(t, r.Render(sampleGroups()))
	assert.True(t, strings.Contains(buf.String(), "-"))
}

func TestTextRenderRepeatsHeaderEvery20Rows(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	for i := 0; i < headerEvery+1; i++ {
		require.NoError(t, r.Render(sampleGroups()))
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "RC6"))
}
