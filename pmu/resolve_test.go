package pmu

import (
	"testing"
	"testing/fstest"

	"github.com/igt-go/intel-gpu-top/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return m
}

func TestResolve(t *testing.T) {
	fsys := fakeFS(map[string]string{
		"type":                  "6\n",
		"events/rcs0-busy":      "event=0x10001\n",
		"events/rcs0-busy.scale": "1.0",
		"events/rcs0-busy.unit":  "ns",
	})

	d, err := Resolve(fsys, "rcs0-busy")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), d.Type)
	assert.Equal(t, uint64(0x10001), d.Config)
	assert.Equal(t, 1.0, d.Scale)
	assert.Equal(t, "ns", d.Unit)
}

func TestResolveDefaultsWhenScaleAndUnitMissing(t *testing.T) {
	fsys := fakeFS(map[string]string{
		"type":             "6",
		"events/freq_req": "event=0x8",
	})

	d, err := Resolve(fsys, "freq_req")
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Scale)
	assert.Equal(t, "", d.Unit)
}

func TestResolveMissingType(t *testing.T) {
	fsys := fakeFS(map[string]string{
		"events/rcs0-busy": "event=0x10001",
	})
	_, err := Resolve(fsys, "rcs0-busy")
	require.Error(t, err)
	assert.ErrorIs(t, err, ierr.ErrParseFailure)
}

func TestResolveMalformedConfig(t *testing.T) {
	fsys := fakeFS(map[string]string{
		"type":             "6",
		"events/rcs0-busy": "not-an-event-line",
	})
	_, err := Resolve(fsys, "rcs0-busy")
	require.Error(t, err)
	assert.ErrorIs(t, err, ierr.ErrParseFailure)
}

func TestResolveBadScale(t *testing.T) {
	for _, scale := range []string{"0", "NaN", "Inf", "-Inf"} {
		fsys := fakeFS(map[string]string{
			"type":                   "6",
			"events/rcs0-busy":       "event=0x1",
			"events/rcs0-busy.scale": scale,
		})
		_, err := Resolve(fsys, "rcs0-busy")
		require.Error(t, err, "scale=%s", scale)
		assert.ErrorIs(t, err, ierr.ErrBadScale, "scale=%s", scale)
	}
}
