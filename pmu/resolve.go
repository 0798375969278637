// Package pmu resolves the kernel perf metadata (event type, config
// bitmask, scale factor, unit string) needed to open a counter, by
// reading the sysfs files the kernel's PMU driver exposes. This is
// component C1 of the sampler: it never opens a counter itself, it only
// produces the descriptor package perfgroup needs to do so.
package pmu

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/igt-go/intel-gpu-top/ierr"
)

// Descriptor is the {type, config, scale, unit} quadruple required to
// open a kernel perf event for one named counter.
type Descriptor struct {
	Type   uint64
	Config uint64
	Scale  float64
	Unit   string
}

// Resolve reads the four sibling sysfs files describing the named
// counter under root (a per-device events root, the RAPL power root,
// or the memory-controller root):
//
//	type              -> 64-bit unsigned PMU type id
//	events/<name>      -> "event=0xHEX" -> 64-bit unsigned config
//	events/<name>.scale -> floating point multiplier
//	events/<name>.unit  -> short unit string, e.g. "MiB", "Joules"
//
// Go's strconv parsers are locale-independent (unlike C's strtod/strtoul),
// so unlike the kernel tooling this resolver is written against, no
// explicit locale pinning is required to match the kernel's "C"-locale
// formatting.
func Resolve(root fs.FS, name string) (Descriptor, error) {
	typ, err := readUint(root, "type")
	if err != nil {
		return Descriptor{}, fmt.Errorf("pmu %s: type: %w", name, err)
	}

	config, err := readEventConfig(root, name)
	if err != nil {
		return Descriptor{}, err
	}

	scale, err := readScale(root, name)
	if err != nil {
		return Descriptor{}, err
	}

	unit, err := readUnit(root, name)
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{Type: typ, Config: config, Scale: scale, Unit: unit}, nil
}

func readFile(root fs.FS, path string) (string, error) {
	b, err := fs.ReadFile(root, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, ierr.ErrParseFailure)
	}
	return strings.TrimSpace(string(b)), nil
}

// readFileOptional is like readFile, but a missing file is reported via
// the ok return rather than an error: several sysfs metadata files
// (.scale, .unit) are optional and default to a no-op value.
func readFileOptional(root fs.FS, path string) (s string, ok bool, err error) {
	b, err := fs.ReadFile(root, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", path, ierr.ErrParseFailure)
	}
	return strings.TrimSpace(string(b)), true, nil
}

func readUint(root fs.FS, path string) (uint64, error) {
	s, err := readFile(root, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parsing %q: %w", path, s, ierr.ErrParseFailure)
	}
	return v, nil
}

// readEventConfig reads events/<name> and parses the single
// "event=0xHEX" (or "event=DEC") clause it contains.
func readEventConfig(root fs.FS, name string) (uint64, error) {
	path := "events/" + name
	s, err := readFile(root, path)
	if err != nil {
		return 0, err
	}

	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) != "event" {
		return 0, fmt.Errorf("%s: %q: %w", path, s, ierr.ErrParseFailure)
	}
	config, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", path, s, ierr.ErrParseFailure)
	}
	return config, nil
}

func readScale(root fs.FS, name string) (float64, error) {
	path := "events/" + name + ".scale"
	s, ok, err := readFileOptional(root, path)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Absence of a .scale file means "no scaling", per the PMU ABI.
		return 1.0, nil
	}
	scale, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parsing %q: %w", path, s, ierr.ErrBadScale)
	}
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0, fmt.Errorf("%s: scale %v: %w", path, scale, ierr.ErrBadScale)
	}
	return scale, nil
}

func readUnit(root fs.FS, name string) (string, error) {
	path := "events/" + name + ".unit"
	s, ok, err := readFileOptional(root, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return s, nil
}
