package process

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const shmDir = "/dev/shm"

// The shared segment holding the per-runner mailboxes. Created by the
// coordinator's process source for each new child and named uniquely so
// that concurrent checker instances never collide. The child maps the same
// file through the name passed in its environment.
type segment struct {
	name string
	data []byte
}

func createSegment(size int) (*segment, error) {
	name := "mcmini-" + uuid.NewString()
	path := filepath.Join(shmDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("process: failed to create shared segment: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("process: failed to size shared segment: %w", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("process: failed to map shared segment: %w", err)
	}
	return &segment{name: name, data: data}, nil
}

// Unmap and unlink the segment. Safe to call more than once.
func (s *segment) close() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	if rmErr := os.Remove(filepath.Join(shmDir, s.name)); err == nil {
		err = rmErr
	}
	return err
}
