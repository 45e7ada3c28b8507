package vtk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var errFileTooLarge = errors.New("vtk: file too large to address")

// Open maps a document read-only and parses it. Array handles slice the
// mapping directly, so values are copied only when recovered. If mmap is
// unavailable it falls back to ReadAt loading. The returned document must be
// closed to release the mapping.
func Open(path string, opts ...ParseOption) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: %s", errFileTooLarge, path)
	}
	size := int(size64)
	if size == 0 {
		return ParseBytes(nil, opts...)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		doc, parseErr := ParseBytes(data, opts...)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		doc.release = func() error { return unix.Munmap(data) }
		return doc, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, opts...)
}

// OpenReaderAt loads and parses a document from a random-access reader.
func OpenReaderAt(r io.ReaderAt, size int64, opts ...ParseOption) (*Document, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, errFileTooLarge
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, opts...)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
