// Package shm gives the flow cache a named shared-memory region that a
// producer process creates and sibling consumer processes attach to. Regions
// are file-backed under /dev/shm when available, so plain mmap covers both
// sides; everything else on the host filesystem works too, just without the
// tmpfs guarantee.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrSize reports an attach whose region is smaller than the caller expects.
var ErrSize = errors.New("shm: region smaller than requested")

// Region is one mapped shared-memory segment.
type Region struct {
	name  string
	data  []byte
	owner bool
}

func regionPath(name string) string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return filepath.Join("/dev/shm", name)
	}
	return filepath.Join(os.TempDir(), name)
}

// Create makes (or truncates) the named region at the given byte size and maps
// it read-write. The creator owns the region and is responsible for Destroy.
func Create(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d for region %q", size, name)
	}
	path := regionPath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: create %q: %w", name, err)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("shm: size %q: %w", name, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map %q: %w", name, err)
	}
	return &Region{name: name, data: data, owner: true}, nil
}

// Attach maps an existing region read-only. The region must already hold at
// least size bytes.
func Attach(name string, size int) (*Region, error) {
	path := regionPath(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shm: attach %q: %w", name, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("shm: attach %q: %w", name, err)
	}
	if fi.Size() < int64(size) {
		return nil, fmt.Errorf("%w: %q has %d bytes, need %d", ErrSize, name, fi.Size(), size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map %q: %w", name, err)
	}
	return &Region{name: name, data: data}, nil
}

// Float64s views the region as a float64 slice. The slice aliases the mapping
// and becomes invalid after Close.
func (r *Region) Float64s() []float64 {
	n := len(r.data) / 8
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), n)
}

func (r *Region) Bytes() []byte { return r.data }

func (r *Region) Name() string { return r.name }

// Close unmaps the region. The backing file stays until the owner destroys it.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	return unix.Munmap(data)
}

// Destroy removes the backing file. Missing files are not an error, so
// teardown paths can call it unconditionally.
func Destroy(name string) error {
	err := os.Remove(regionPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: destroy %q: %w", name, err)
	}
	return nil
}
