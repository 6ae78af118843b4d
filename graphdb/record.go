package graphdb

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RecordManager writes/reads variable-length records as one or more
// consecutive fixed-size pages through a BufferPool, ported from the
// teacher's record.go (which padded every record to exactly one
// page). Records here may span multiple pages since a node or edge
// with a large property map can exceed one page.
type RecordManager struct {
	pool     *BufferPool
	pageSize int
	log      *logrus.Entry
}

// NewRecordManager builds a RecordManager over a BufferPool.
func NewRecordManager(pool *BufferPool, pageSize int) *RecordManager {
	return &RecordManager{pool: pool, pageSize: pageSize, log: logrus.WithField("component", "RecordManager")}
}

func pagesFor(totalBytes, pageSize int) int {
	return (totalBytes + pageSize - 1) / pageSize
}

// WriteRecord writes data as a 4-byte length prefix followed by its
// bytes, spanning as many consecutive pages as needed, and returns the
// first page index (the record's address in the snapshot file).
func (rm *RecordManager) WriteRecord(storage *StorageManager, data []byte) (int, error) {
	blob := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(blob[0:4], uint32(len(data)))
	copy(blob[4:], data)

	numPages := pagesFor(len(blob), rm.pageSize)
	startPage := -1
	for i := 0; i < numPages; i++ {
		page, err := storage.AllocatePage()
		if err != nil {
			return 0, err
		}
		if i == 0 {
			startPage = page
		}
		lo := i * rm.pageSize
		hi := lo + rm.pageSize
		if hi > len(blob) {
			hi = len(blob)
		}
		if err := rm.pool.WritePage(page, blob[lo:hi]); err != nil {
			return 0, err
		}
	}
	return startPage, nil
}

// ReadRecord reads back a record previously written by WriteRecord,
// given its starting page index.
func (rm *RecordManager) ReadRecord(startPage int) ([]byte, error) {
	first, err := rm.pool.GetPage(startPage)
	if err != nil {
		return nil, err
	}
	if len(first) < 4 {
		return nil, fmt.Errorf("%w: truncated record header", ErrIO)
	}
	total := int(binary.BigEndian.Uint32(first[0:4]))
	blob := make([]byte, 0, total+4)
	blob = append(blob, first...)

	numPages := pagesFor(total+4, rm.pageSize)
	for i := 1; i < numPages; i++ {
		page, err := rm.pool.GetPage(startPage + i)
		if err != nil {
			return nil, err
		}
		blob = append(blob, page...)
	}
	if len(blob) < 4+total {
		return nil, fmt.Errorf("%w: short record", ErrIO)
	}
	return blob[4 : 4+total], nil
}
