package render

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metricLineRe = regexp.MustCompile(`(?m)^intel_gpu_top_[a-z0-9_]+_[a-z0-9_]+ `)

func TestPromRenderMetricNamesMatchNamingRule(t *testing.T) {
	var buf bytes.Buffer
	r := NewProm(&buf)
	require.NoError(t, r.Render([]Group{
		{Key: "RC6", Items: []Item{{Key: "Value!", Value: 42, Present: true}}},
	}))

	assert.True(t, metricLineRe.MatchString(buf.String()), buf.String())
}

func TestPromRenderOmitsAbsentItems(t *testing.T) {
	var buf bytes.Buffer
	r := NewProm(&buf)
	require.NoError(t, r.Render([]Group{
		{Key: "power", Items: []Item{{Key: "GPU", Present: false}}},
	}))
	assert.NotContains(t, buf.String(), "intel_gpu_top_power_gpu")
}

func TestSanitizeKeyUsesOwnLength(t *testing.T) {
	// Each string is sanitised on its own terms; a long item key under a
	// short group key must not be truncated to the group key's length.
	name := MetricName("gp", "a_very_long_item_key")
	assert.Equal(t, "intel_gpu_top_gp_a_very_long_item_key", name)
}
