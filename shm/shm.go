// Package shm provides helpers for dealing with shared memory.
package shm

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Create returns an anonymous shared-memory file. The file has
// already been unlinked; it lives only as long as its descriptors do.
func Create() (*os.File, error) {
	path := fmt.Sprintf("/dev/shm/waywin-%v", time.Now().UnixNano())

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}

	return file, os.Remove(path)
}

// Mmap is a mapped view of a file.
type Mmap []byte

func mmap(file *os.File, size, prot, flags int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, flags)
		mmap, err = Mmap(m), merr
	})

	return mmap, err
}

// MapShared maps size bytes of file with the given protection flags,
// shared with every other mapping of the same file.
func MapShared(file *os.File, size, prot int) (Mmap, error) {
	return mmap(file, size, prot, unix.MAP_SHARED)
}

// MapPrivate maps size bytes of file privately. Useful for read-only
// views of descriptors received from another process.
func MapPrivate(file *os.File, size, prot int) (Mmap, error) {
	return mmap(file, size, prot, unix.MAP_PRIVATE)
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}
