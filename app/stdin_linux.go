//go:build linux

package app

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollStdin implements StdinPoller over a raw file descriptor using
// unix.Poll, per spec.md §4.7's "non-blocking polling with a timeout
// equal to the remaining period".
type pollStdin struct {
	fd int
}

func newPollStdin(fd int) *pollStdin {
	return &pollStdin{fd: fd}
}

func (p *pollStdin) Poll(timeout time.Duration) (byte, bool, error) {
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	ms := int(timeout / time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("polling stdin: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}

	var buf [1]byte
	read, err := unix.Read(p.fd, buf[:])
	if err != nil {
		return 0, false, fmt.Errorf("reading stdin: %w", err)
	}
	if read == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}
