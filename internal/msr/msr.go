// Package msr provides typed access to the per-logical-CPU model-specific
// register device node exposed by Linux on x86 (/dev/cpu/<id>/msr).
package msr

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// A Handle is an open MSR device for one logical CPU. Reads and writes
// against a Handle target the register address given as a byte offset,
// per the Linux msr(4) convention.
type Handle struct {
	coreID int
	fd     int
	path   string
}

// Open opens the MSR device node for the given logical CPU. Failure to
// open (typically insufficient privilege, or a kernel without the msr
// module loaded) is returned as a distinct error so the caller can treat
// it as fatal at startup.
func Open(coreID int) (*Handle, error) {
	path := filepath.Join("/dev/cpu", strconv.Itoa(coreID), "msr")
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("msr: open %s: %w", path, err)
	}
	return &Handle{coreID: coreID, fd: fd, path: path}, nil
}

// CoreID returns the logical CPU this handle was opened for.
func (h *Handle) CoreID() int { return h.coreID }

// Read returns the 64-bit value of the register at the given address.
// The read is atomic at the 8-byte granularity, as guaranteed by the msr
// driver.
func (h *Handle) Read(reg uint32) (uint64, error) {
	var buf [8]byte
	n, err := unix.Pread(h.fd, buf[:], int64(reg))
	if err != nil {
		return 0, fmt.Errorf("msr: read %s@0x%x: %w", h.path, reg, err)
	}
	if n != len(buf) {
		return 0, fmt.Errorf("msr: read %s@0x%x: short read of %d bytes", h.path, reg, n)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Write stores v into the register at the given address. The write is
// atomic at the 8-byte granularity.
func (h *Handle) Write(reg uint32, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	n, err := unix.Pwrite(h.fd, buf[:], int64(reg))
	if err != nil {
		return fmt.Errorf("msr: write %s@0x%x: %w", h.path, reg, err)
	}
	if n != len(buf) {
		return fmt.Errorf("msr: write %s@0x%x: short write of %d bytes", h.path, reg, n)
	}
	return nil
}

// Close closes the underlying device file descriptor.
func (h *Handle) Close() error {
	return unix.Close(h.fd)
}
