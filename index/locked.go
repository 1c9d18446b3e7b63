package index

import (
	"sync"

	"github.com/viant/sqlite-kd/geom"
)

// Locked serializes access to an Index: Insert takes the write lock, every
// query takes the read lock. Implementations never modify stored nodes in
// place, so concurrent readers are safe under the shared lock.
type Locked struct {
	mu  sync.RWMutex
	idx Index
}

// NewLocked wraps idx. The caller must not use idx directly afterwards.
func NewLocked(idx Index) *Locked { return &Locked{idx: idx} }

func (l *Locked) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idx.IsEmpty()
}

func (l *Locked) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idx.Size()
}

func (l *Locked) Insert(p geom.Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idx.Insert(p)
}

func (l *Locked) Contains(p geom.Point) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idx.Contains(p)
}

func (l *Locked) Range(r geom.Rect) ([]geom.Point, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idx.Range(r)
}

func (l *Locked) Nearest(p geom.Point) (geom.Point, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.idx.Nearest(p)
}

// Ensure Locked satisfies the Index interface.
var _ Index = (*Locked)(nil)
