package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kittymc-go/kittymc/internal/kerr"
)

// Priority orders chunk requests across a connection's needs: a player
// teleporting needs their new standing chunk before the chunks at the
// edge of their view distance.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMid
	PriorityLow
)

// chunkRemoveAfter is how long a chunk may sit unaccessed before the
// unloader evicts it, matching the 30-second sweep interval below.
const chunkRemoveAfter = 30 * time.Second

const unloadSweepInterval = 30 * time.Second

type loadedChunk struct {
	chunk      *Chunk
	lastAccess time.Time
}

// Manager owns every loaded chunk column: priority-queued generation
// across a worker pool, access-time tracked eviction, and flat-file
// persistence under dir.
type Manager struct {
	dir string
	gen *Generator
	log *slog.Logger

	mu     sync.RWMutex
	loaded map[ChunkPos]*loadedChunk

	high, mid, low chan ChunkPos
	group          singleflight.Group

	workers int
}

// NewManager builds a chunk manager rooted at dir, generating with the
// given seed across workers generator goroutines.
func NewManager(dir string, seed int64, workers int, log *slog.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		dir:     dir,
		gen:     NewGenerator(seed),
		log:     log,
		loaded:  make(map[ChunkPos]*loadedChunk),
		high:    make(chan ChunkPos, 4096),
		mid:     make(chan ChunkPos, 4096),
		low:     make(chan ChunkPos, 4096),
		workers: workers,
	}
}

// Run starts the generator worker pool and the unloader sweep, blocking
// until ctx is canceled or a worker returns a fatal error.
func (m *Manager) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < m.workers; i++ {
		eg.Go(func() error { return m.runGenerator(ctx) })
	}
	eg.Go(func() error { return m.runUnloader(ctx) })
	return eg.Wait()
}

// Request enqueues pos for generation/load at the given priority unless
// it is already loaded. Non-blocking: callers poll Get for the result.
func (m *Manager) Request(pos ChunkPos, pri Priority) {
	m.mu.RLock()
	_, ok := m.loaded[pos]
	m.mu.RUnlock()
	if ok {
		return
	}

	var q chan ChunkPos
	switch pri {
	case PriorityHigh:
		q = m.high
	case PriorityMid:
		q = m.mid
	default:
		q = m.low
	}
	select {
	case q <- pos:
	default:
		// Queue full: a later view-distance resync will re-request it.
	}
}

// Get returns a chunk column if it is loaded, touching its access time.
func (m *Manager) Get(pos ChunkPos) (*Chunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.loaded[pos]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	return e.chunk, true
}

// GetBlock reads a single block state from an already-loaded chunk
// column; ok is false if the column isn't currently resident.
func (m *Manager) GetBlock(pos ChunkPos, lx, ly, lz int) (state uint16, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.loaded[pos]
	if !ok {
		return 0, false
	}
	sec := ly >> 4
	e.lastAccess = time.Now()
	return e.chunk.Sections[sec][sectionIndex(lx, ly&0x0F, lz)], true
}

// SetBlock mutates a single block in an already-loaded chunk column; it
// is a no-op if the column isn't currently resident (the caller should
// have requested and waited for it first).
func (m *Manager) SetBlock(pos ChunkPos, lx, ly, lz int, state uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.loaded[pos]
	if !ok {
		return false
	}
	sec := ly >> 4
	e.chunk.Sections[sec][sectionIndex(lx, ly&0x0F, lz)] = state
	e.lastAccess = time.Now()
	return true
}

func (m *Manager) runGenerator(ctx context.Context) error {
	ticker := newIncreasingTicker()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pos, ok := m.dequeue()
		if !ok {
			ticker.wait()
			continue
		}
		ticker.reset()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &kerr.WorkerPanic{Recovered: r}
				}
			}()
			return m.generateOrLoad(pos)
		}()
		if err != nil {
			m.log.Error("chunk generation failed", "x", pos.X, "z", pos.Z, "error", err)
		}
	}
}

// dequeue drains high before mid before low, giving near-player chunks
// priority without starving the far edge of view distance entirely.
func (m *Manager) dequeue() (ChunkPos, bool) {
	select {
	case p := <-m.high:
		return p, true
	default:
	}
	select {
	case p := <-m.mid:
		return p, true
	default:
	}
	select {
	case p := <-m.low:
		return p, true
	default:
	}
	return ChunkPos{}, false
}

func (m *Manager) generateOrLoad(pos ChunkPos) error {
	key := fmt.Sprintf("%d,%d", pos.X, pos.Z)
	_, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		_, already := m.loaded[pos]
		m.mu.RUnlock()
		if already {
			return nil, nil
		}

		var c *Chunk
		if chunkFileExists(m.dir, pos) {
			loaded, err := loadChunk(m.dir, pos)
			if err != nil {
				return nil, err
			}
			c = loaded
		} else {
			sections, biomes := m.gen.GenerateInternal(int(pos.X), int(pos.Z))
			c = &Chunk{Sections: sections, Biomes: biomes}
		}

		m.mu.Lock()
		m.loaded[pos] = &loadedChunk{chunk: c, lastAccess: time.Now()}
		m.mu.Unlock()
		return nil, nil
	})
	return err
}

func (m *Manager) runUnloader(ctx context.Context) error {
	t := time.NewTicker(unloadSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-chunkRemoveAfter)

	m.mu.Lock()
	var expired []ChunkPos
	for pos, e := range m.loaded {
		if e.lastAccess.Before(cutoff) {
			expired = append(expired, pos)
		}
	}
	m.mu.Unlock()

	for _, pos := range expired {
		m.mu.RLock()
		e, ok := m.loaded[pos]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := saveChunk(m.dir, pos, e.chunk); err != nil {
			m.log.Error("chunk save failed", "x", pos.X, "z", pos.Z, "error", err)
			continue
		}
		m.mu.Lock()
		delete(m.loaded, pos)
		m.mu.Unlock()
	}
}

// LoadedCount reports how many chunk columns currently sit in memory,
// used by tests and diagnostics.
func (m *Manager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loaded)
}
