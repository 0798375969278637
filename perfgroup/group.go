// Package perfgroup implements component C3, the counter multiplexer:
// it opens counters as a single kernel-managed event group so that one
// read yields a coherent snapshot with a shared timestamp.
//
//go:build linux

package perfgroup

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/igt-go/intel-gpu-top/ierr"
)

// Group is a kernel-managed perf event group: a leader descriptor plus
// an ordered sequence of follower descriptors that the kernel schedules
// and reads together. Open returns the stable index of each counter
// within the group; that index is what spec.md §3 calls a Counter's
// group_index, and it selects the counter's slot in the vector Read
// returns.
type Group struct {
	leader    *os.File
	followers []*os.File
	readBuf   []byte
}

// NewGroup returns an empty, unopened Group.
func NewGroup() *Group {
	return &Group{}
}

// Open opens one more counter in g, using the given kernel event type
// and config bitmask. The first call establishes the group leader;
// subsequent calls attach as followers so the kernel delivers all of
// their values from one read of the leader. The counter is enabled
// immediately: there is no separate Start step, since the sampler never
// pauses a running group.
//
// Returns ierr.ErrCounterOpenRefused, wrapped with the kernel's
// rejection reason, if perf_event_open refuses this counter — the
// surrounding counters in the group are unaffected and may still be
// opened.
func (g *Group) Open(typ, config uint64) (index int, err error) {
	attr := unix.PerfEventAttr{
		Type:   uint32(typ),
		Config: config,
	}
	attr.Size = uint32(unsafe.Sizeof(attr))

	leaderFD := -1
	if g.leader != nil {
		leaderFD = int(g.leader.Fd())
	} else {
		attr.Read_format = unix.PERF_FORMAT_GROUP | unix.PERF_FORMAT_TOTAL_TIME_ENABLED
	}

	fd, oerr := unix.PerfEventOpen(&attr, 0, -1, leaderFD, unix.PERF_FLAG_FD_CLOEXEC)
	if oerr != nil {
		return 0, fmt.Errorf("perf_event_open(type=%d, config=%#x): %w: %w", typ, config, oerr, ierr.ErrCounterOpenRefused)
	}
	f := os.NewFile(uintptr(fd), "<perf-event>")

	if g.leader == nil {
		g.leader = f
		g.readBuf = make([]byte, 3*8)
		return 0, nil
	}

	g.followers = append(g.followers, f)
	g.readBuf = append(g.readBuf, make([]byte, 8)...)
	return len(g.followers), nil
}

// Len reports how many counters have been successfully opened in g.
func (g *Group) Len() int {
	if g.leader == nil {
		return 0
	}
	return 1 + len(g.followers)
}

// Read performs one grouped read, returning the kernel-supplied
// sampling timestamp (nanoseconds) and the current raw value of every
// counter in the group, in group_index order.
//
// Returns ierr.ErrShortRead if the kernel's response doesn't match the
// expected "[nr][time][value_0]...[value_{N-1}]" layout — this
// indicates a kernel/userspace disagreement on the read format and is
// fatal, per spec.md §7.
func (g *Group) Read() (timestamp uint64, values []uint64, err error) {
	if g.leader == nil {
		return 0, nil, nil
	}

	n, err := g.leader.Read(g.readBuf)
	if err != nil {
		return 0, nil, fmt.Errorf("reading perf group: %w", err)
	}
	want := len(g.readBuf)
	if n != want {
		return 0, nil, fmt.Errorf("read %d bytes, want %d: %w", n, want, ierr.ErrShortRead)
	}

	nr := binary.NativeEndian.Uint64(g.readBuf[0:8])
	if nr != uint64(g.Len()) {
		return 0, nil, fmt.Errorf("group reports %d values, have %d open counters: %w", nr, g.Len(), ierr.ErrShortRead)
	}
	timestamp = binary.NativeEndian.Uint64(g.readBuf[8:16])

	values = make([]uint64, g.Len())
	for i := range values {
		off := 16 + i*8
		values[i] = binary.NativeEndian.Uint64(g.readBuf[off : off+8])
	}
	return timestamp, values, nil
}

// Close releases every descriptor owned by g. Safe to call on a Group
// that failed to open any counters, and safe to call more than once.
func (g *Group) Close() error {
	var firstErr error
	for _, f := range g.followers {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	g.followers = nil
	if g.leader != nil {
		if err := g.leader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		g.leader = nil
	}
	return firstErr
}
