// Package evtpool implements fixed-size pools of dynamic events.
//
// Each pool preallocates its blocks once and hands them out from a free
// list; no events are allocated after setup. Events are shared by reference
// counting: every holder takes a reference with IncrementRef and drops it
// with Reclaim, and the block returns to its free list when the last
// reference is dropped.
package evtpool

import (
	"errors"
	"fmt"
	"math"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/internal/critsec"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// MaxPools is the maximum number of event pools.
const MaxPools = 3

var (
	// ErrTooManyPools is returned when more than MaxPools pools are added
	ErrTooManyPools = errors.New("too many event pools")
	// ErrPoolOrder is returned when pools are not added in ascending block size order
	ErrPoolOrder = errors.New("event pools must be added in ascending block size order")
	// ErrInvalidPoolConfig is returned for a non-positive block size or count
	ErrInvalidPoolConfig = errors.New("block size and block count must be positive")
)

// Stats describes one pool.
type Stats struct {
	ID        uint8 `json:"id"`
	BlockSize int   `json:"blockSize"`
	Blocks    int   `json:"blocks"`
	Free      int   `json:"free"`
	MinFree   int   `json:"minFree"`
}

type pool struct {
	blockSize int
	blocks    []event.Event
	free      []*event.Event
	minFree   int
}

// Manager owns the event pools of a runtime. Pools must be added before
// events are allocated; after that the Manager is safe for concurrent use.
type Manager struct {
	cs    active.CriticalSection
	pools []*pool
	check contract.Module
}

// NewManager creates a manager without pools. A nil critical section gets a
// private one; runtimes pass the critical section shared with the pubsub core.
func NewManager(cs active.CriticalSection, onViolation contract.Handler) *Manager {
	if cs == nil {
		cs = &critsec.Mutex{}
	}
	return &Manager{
		cs:    cs,
		check: contract.Module{Name: "evtpool", Handler: onViolation},
	}
}

// Add creates a pool of blocks events for payloads up to blockSize bytes
// and returns its pool id (1-based).
func (m *Manager) Add(blockSize, blocks int) (uint8, error) {
	if blockSize <= 0 || blocks <= 0 {
		return 0, ErrInvalidPoolConfig
	}
	if len(m.pools) >= MaxPools {
		return 0, ErrTooManyPools
	}
	if n := len(m.pools); n > 0 && m.pools[n-1].blockSize > blockSize {
		return 0, fmt.Errorf("%w: %d after %d", ErrPoolOrder, blockSize, m.pools[n-1].blockSize)
	}

	id := uint8(len(m.pools) + 1)
	p := &pool{
		blockSize: blockSize,
		blocks:    make([]event.Event, blocks),
		free:      make([]*event.Event, 0, blocks),
		minFree:   blocks,
	}
	for i := range p.blocks {
		e := &p.blocks[i]
		e.Bind(id)
		p.free = append(p.free, e)
	}
	m.pools = append(m.pools, p)
	return id, nil
}

// New allocates a dynamic event from the first pool whose blocks fit size.
// Running out of blocks is a contract violation.
func (m *Manager) New(sig event.Signal, size int, payload any) *event.Event {
	e := m.get(sig, size, 0, payload)
	m.check.Require(300, e != nil)
	return e
}

// TryNew is like New but returns nil instead of failing when allocating
// would leave margin or fewer free blocks in the pool.
func (m *Manager) TryNew(sig event.Signal, size, margin int, payload any) *event.Event {
	return m.get(sig, size, margin, payload)
}

func (m *Manager) get(sig event.Signal, size, margin int, payload any) *event.Event {
	idx := -1
	for i, p := range m.pools {
		if size <= p.blockSize {
			idx = i
			break
		}
	}
	m.check.Require(310, idx >= 0)
	p := m.pools[idx]

	m.cs.Enter()
	n := len(p.free)
	if n == 0 || (margin > 0 && n <= margin) {
		m.cs.Exit()
		return nil
	}
	e := p.free[n-1]
	p.free = p.free[:n-1]
	if n-1 < p.minFree {
		p.minFree = n - 1
	}
	m.cs.Exit()

	e.Bind(uint8(idx + 1))
	e.Sig = sig
	e.Payload = payload
	return e
}

// IncrementRef takes one more reference to a dynamic event. Taking more
// references than the counter can hold is a contract violation.
func (m *Manager) IncrementRef(e *event.Event) {
	if !e.IsDynamic() {
		return
	}
	m.cs.Enter()
	if e.RefCount() == math.MaxUint8 {
		m.cs.Exit()
		m.check.Fail(340)
	}
	e.IncRef()
	m.cs.Exit()
}

// Reclaim drops one reference to a dynamic event and recycles the block
// when it was the last one.
func (m *Manager) Reclaim(e *event.Event) {
	if !e.IsDynamic() {
		return
	}

	id := int(e.PoolID())
	m.cs.Enter()
	switch {
	case id > len(m.pools):
		m.cs.Exit()
		m.check.Fail(320)
	case e.RefCount() == 0:
		m.cs.Exit()
		m.check.Fail(330)
	case e.RefCount() > 1:
		e.DecRef()
		m.cs.Exit()
	default:
		e.DecRef()
		e.Sig = 0
		e.Payload = nil
		p := m.pools[id-1]
		p.free = append(p.free, e)
		m.cs.Exit()
	}
}

// Free returns the number of free blocks in a pool.
func (m *Manager) Free(id uint8) int {
	p := m.pool(id)
	m.cs.Enter()
	defer m.cs.Exit()
	return len(p.free)
}

// MinFree returns the lowest number of free blocks ever observed in a pool.
func (m *Manager) MinFree(id uint8) int {
	p := m.pool(id)
	m.cs.Enter()
	defer m.cs.Exit()
	return p.minFree
}

// Stats returns a snapshot of every pool.
func (m *Manager) Stats() []Stats {
	out := make([]Stats, 0, len(m.pools))
	m.cs.Enter()
	defer m.cs.Exit()
	for i, p := range m.pools {
		out = append(out, Stats{
			ID:        uint8(i + 1),
			BlockSize: p.blockSize,
			Blocks:    len(p.blocks),
			Free:      len(p.free),
			MinFree:   p.minFree,
		})
	}
	return out
}

func (m *Manager) pool(id uint8) *pool {
	m.check.Require(320, id > 0 && int(id) <= len(m.pools))
	return m.pools[id-1]
}

// Verify that Manager implements the event.Pool interface at compile time
var _ event.Pool = (*Manager)(nil)
