// Package ierr defines the sentinel error kinds shared across the
// sampler, organized the way spec.md §7 categorizes failures: some are
// fatal, some are recovered locally by marking a counter absent.
package ierr

import "errors"

var (
	// ErrDeviceNotFound means the requested device filter matched no card.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrPmuUnsupported means the device's sysfs events directory is
	// missing or empty: the running kernel has no PMU for this device.
	ErrPmuUnsupported = errors.New("PMU unsupported by running kernel")

	// ErrCounterOpenRefused means perf_event_open rejected an individual
	// counter. Recovered locally: the counter is marked absent.
	ErrCounterOpenRefused = errors.New("counter open refused")

	// ErrShortRead means a grouped read returned an unexpected byte count.
	ErrShortRead = errors.New("short read from counter group")

	// ErrParseFailure means sysfs metadata could not be parsed.
	ErrParseFailure = errors.New("malformed sysfs metadata")

	// ErrBadScale means a parsed scale factor was zero or non-finite.
	ErrBadScale = errors.New("invalid scale factor")

	// ErrTerminalIO is non-fatal: interactive mode degrades to plain text.
	ErrTerminalIO = errors.New("terminal I/O error")

	// ErrNameTooLong, ErrBadConfig mirror spec.md §4.2 engine discovery failures.
	ErrNameTooLong = errors.New("engine name too long")
	ErrBadConfig   = errors.New("malformed engine config")
)
