package graphdb

import (
	"container/list"

	"github.com/sirupsen/logrus"
)

// BufferPool is a write-through LRU cache of pages in front of a
// StorageManager, ported from the teacher's bufferpool.go. Where the
// teacher used it as the live cache for every node/edge read during
// normal operation, here it staggers the page traffic of one
// SaveBinary/LoadBinary pass so a snapshot with more pages than fit
// comfortably in memory doesn't hold every page resident at once.
type BufferPool struct {
	storage  *StorageManager
	capacity int
	pages    map[int][]byte
	lru      *list.List
	lruKeys  map[int]*list.Element
	log      *logrus.Entry
}

// NewBufferPool wraps a StorageManager with an LRU page cache of the
// given capacity (in pages).
func NewBufferPool(storage *StorageManager, capacity int) *BufferPool {
	if capacity <= 0 {
		capacity = 64
	}
	return &BufferPool{
		storage:  storage,
		capacity: capacity,
		pages:    make(map[int][]byte),
		lru:      list.New(),
		lruKeys:  make(map[int]*list.Element),
		log:      logrus.WithField("component", "BufferPool"),
	}
}

func (bp *BufferPool) touch(page int) {
	if el, ok := bp.lruKeys[page]; ok {
		bp.lru.MoveToFront(el)
		return
	}
	bp.lruKeys[page] = bp.lru.PushFront(page)
}

// GetPage returns a page's bytes, reading through to storage on miss.
func (bp *BufferPool) GetPage(page int) ([]byte, error) {
	if data, ok := bp.pages[page]; ok {
		bp.touch(page)
		return data, nil
	}
	data, err := bp.storage.ReadPage(page)
	if err != nil {
		return nil, err
	}
	bp.cache(page, data)
	return data, nil
}

// WritePage updates the cache and writes through to storage
// immediately (no deferred flush: a crash mid-snapshot must never
// leave a page the caller believes was written as stale on disk).
func (bp *BufferPool) WritePage(page int, data []byte) error {
	if err := bp.storage.WritePage(page, data); err != nil {
		return err
	}
	padded := make([]byte, bp.storage.PageSize())
	copy(padded, data)
	bp.cache(page, padded)
	return nil
}

func (bp *BufferPool) cache(page int, data []byte) {
	bp.pages[page] = data
	bp.touch(page)
	if len(bp.pages) > bp.capacity {
		bp.evictPage()
	}
}

func (bp *BufferPool) evictPage() {
	oldest := bp.lru.Back()
	if oldest == nil {
		return
	}
	page := oldest.Value.(int)
	bp.lru.Remove(oldest)
	delete(bp.lruKeys, page)
	delete(bp.pages, page)
	bp.log.WithField("page", page).Trace("evicted page from buffer pool")
}

// Close closes the underlying storage.
func (bp *BufferPool) Close() error {
	return bp.storage.Close()
}
