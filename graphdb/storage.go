package graphdb

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// headerSize and magic match the teacher's storage.go page-file
// layout: a fixed header followed by fixed-size pages. Originally the
// live backing store for every mutation, this is now the on-disk
// container written once per SaveBinary call and read once per
// LoadBinary call (see DESIGN.md).
const (
	storageMagic  = "GDB2"
	headerSize    = 4096
	defaultPageSz = 4096
)

// StorageManager performs page-based file I/O for the binary snapshot
// format: a magic header, page size, and page count, followed by
// fixed-size pages.
type StorageManager struct {
	file        *os.File
	pageSize    int
	numPages    int
	trailerPage int
	log         *logrus.Entry
}

// CreateStorage creates a new snapshot file (truncating any existing
// one) with the given page size.
func CreateStorage(filename string, pageSize int) (*StorageManager, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSz
	}
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	sm := &StorageManager{file: f, pageSize: pageSize, trailerPage: -1, log: logrus.WithField("component", "StorageManager")}
	if err := sm.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	sm.log.WithField("file", filename).Info("snapshot storage created")
	return sm, nil
}

// OpenStorage opens an existing snapshot file for reading.
func OpenStorage(filename string) (*StorageManager, error) {
	f, err := os.OpenFile(filename, os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	sm := &StorageManager{file: f, log: logrus.WithField("component", "StorageManager")}
	if err := sm.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	sm.log.WithField("file", filename).Info("snapshot storage opened")
	return sm, nil
}

func (sm *StorageManager) writeHeader() error {
	header := make([]byte, headerSize)
	copy(header[0:4], []byte(storageMagic))
	binary.BigEndian.PutUint32(header[4:8], uint32(sm.pageSize))
	binary.BigEndian.PutUint32(header[8:12], uint32(sm.numPages))
	binary.BigEndian.PutUint32(header[12:16], uint32(sm.trailerPage+1))
	if _, err := sm.file.WriteAt(header, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (sm *StorageManager) readHeader() error {
	header := make([]byte, headerSize)
	if _, err := sm.file.ReadAt(header, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if string(header[0:4]) != storageMagic {
		return fmt.Errorf("%w: bad snapshot magic", ErrIO)
	}
	sm.pageSize = int(binary.BigEndian.Uint32(header[4:8]))
	sm.numPages = int(binary.BigEndian.Uint32(header[8:12]))
	sm.trailerPage = int(binary.BigEndian.Uint32(header[12:16])) - 1
	return nil
}

// SetTrailerPage records the start page of the snapshot's trailer
// record (the index + id-counter block written after every node/edge
// record) and persists it to the header immediately.
func (sm *StorageManager) SetTrailerPage(page int) error {
	sm.trailerPage = page
	return sm.writeHeader()
}

// TrailerPage returns the trailer's start page, or -1 if unset.
func (sm *StorageManager) TrailerPage() int {
	return sm.trailerPage
}

// AllocatePage reserves and returns the index of a new page, updating
// the persisted page count.
func (sm *StorageManager) AllocatePage() (int, error) {
	page := sm.numPages
	sm.numPages++
	if err := sm.writeHeader(); err != nil {
		return 0, err
	}
	return page, nil
}

// WritePage writes exactly pageSize bytes (padded/truncated) at the
// given page index.
func (sm *StorageManager) WritePage(page int, data []byte) error {
	buf := make([]byte, sm.pageSize)
	copy(buf, data)
	offset := int64(headerSize + page*sm.pageSize)
	if _, err := sm.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// ReadPage reads one full page's bytes.
func (sm *StorageManager) ReadPage(page int) ([]byte, error) {
	buf := make([]byte, sm.pageSize)
	offset := int64(headerSize + page*sm.pageSize)
	if _, err := sm.file.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return buf, nil
}

// PageCount returns the number of allocated pages.
func (sm *StorageManager) PageCount() int { return sm.numPages }

// PageSize returns the page size in bytes.
func (sm *StorageManager) PageSize() int { return sm.pageSize }

// Close closes the underlying file.
func (sm *StorageManager) Close() error {
	if err := sm.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
