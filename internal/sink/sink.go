// Package sink implements the per-core sample sink: a file pre-sized to
// hold the run's maximum sample count, memory-mapped writable so that
// appending a record never allocates, grows the file, or calls into the
// I/O path.
package sink

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/aclements/corecounter/internal/sample"
)

// A Sink receives one core's records in production order. It owns a fixed
// mapped region of capacity*sample.Size bytes; Append is bounds-checked
// against that capacity and never reallocates.
type Sink struct {
	path     string
	fd       int
	data     []byte
	capacity uint64
	cursor   uint64
}

// Create opens (creating if necessary) the file at path, extends it to
// maxSamples*sample.Size bytes, maps it writable and shared, advises the
// kernel of sequential access, and pre-populates its pages so the hot loop
// never takes a minor page fault.
func Create(path string, maxSamples uint64) (*Sink, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}

	size := int64(maxSamples) * int64(sample.Size)
	if err := unix.Ftruncate(fd, size); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sink: truncate %s to %d bytes: %w", path, size, err)
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sink: mmap %s: %w", path, err)
	}

	// Advice only; a failure here does not affect correctness.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &Sink{
		path:     path,
		fd:       fd,
		data:     data,
		capacity: maxSamples,
	}, nil
}

// Full reports whether the sink has reached its pre-sized capacity.
func (s *Sink) Full() bool { return s.cursor >= s.capacity }

// Cursor returns the number of records written so far.
func (s *Sink) Cursor() uint64 { return s.cursor }

// Append writes r at the current cursor and advances it. It returns an
// error if the sink is already full; callers are expected to check Full
// before calling Append in the hot loop rather than relying on this error
// as control flow.
func (s *Sink) Append(r sample.Record) error {
	if s.Full() {
		return fmt.Errorf("sink: %s is full at %d records", s.path, s.capacity)
	}
	off := s.cursor * uint64(sample.Size)
	r.Encode(s.data[off : off+uint64(sample.Size)])
	s.cursor++
	return nil
}

// Close unmaps the region, truncates the file to cursor*sample.Size bytes,
// and closes the file descriptor. Errors during any of these steps are
// shutdown warnings per the spec and are joined, not stopped at the first
// failure, so teardown proceeds as far as possible.
func (s *Sink) Close() error {
	var errs []error
	if err := unix.Munmap(s.data); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}
	finalSize := int64(s.cursor) * int64(sample.Size)
	if err := unix.Ftruncate(s.fd, finalSize); err != nil {
		errs = append(errs, fmt.Errorf("truncate to %d bytes: %w", finalSize, err))
	}
	if err := unix.Close(s.fd); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("sink: close %s: %v", s.path, errs)
}
