package container

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MmapRawStore is a RawWordStore backed by a memory-mapped flat file of
// little-endian uint32 words. It avoids loading the whole raw-word stream
// into a Go slice, handing the kernel-mapped buffer off directly instead.
type MmapRawStore struct {
	file *os.File
	data []byte
}

// OpenMmapRawStore maps the given file read-only. The file's length must be
// a multiple of 4 bytes.
func OpenMmapRawStore(path string) (*MmapRawStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "container: opening raw word file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "container: stat raw word file")
	}
	size := info.Size()
	if size%4 != 0 {
		f.Close()
		return nil, errors.Errorf("container: raw word file size %d is not a multiple of 4", size)
	}
	if size == 0 {
		return &MmapRawStore{file: f}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "container: mmap raw word file")
	}
	return &MmapRawStore{file: f, data: data}, nil
}

func (m *MmapRawStore) WordAt(i uint64) (uint32, error) {
	off := i * 4
	if off+4 > uint64(len(m.data)) {
		return 0, errors.Errorf("container: raw word index %d out of range (len %d)", i, len(m.data)/4)
	}
	return binary.LittleEndian.Uint32(m.data[off : off+4]), nil
}

func (m *MmapRawStore) Len() uint64 { return uint64(len(m.data)) / 4 }

// Close unmaps the file and releases the underlying file descriptor.
func (m *MmapRawStore) Close() error {
	var err error
	if m.data != nil {
		err = unix.Munmap(m.data)
	}
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}
