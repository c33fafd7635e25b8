package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

var ErrDuplicateID = errors.New("duplicate asset id")

// Observer is called after every applied update, outside the store lock.
type Observer func(update models.PriceUpdate)

// Store is the single source of truth for the tracked assets.
// Slice order is the display order and never changes after New.
type Store struct {
	mu     sync.RWMutex
	assets []models.Asset
	index  map[int]int // id -> position in assets
	seq    []int64     // per position
	epoch  string
	now    func() time.Time

	obsMu     sync.Mutex
	observers []*observerEntry
}

type observerEntry struct {
	fn Observer
}

// New copies seed into a fresh store.
func New(seed []models.Asset) (*Store, error) {
	s := &Store{
		assets: make([]models.Asset, len(seed)),
		index:  make(map[int]int, len(seed)),
		seq:    make([]int64, len(seed)),
		epoch:  uuid.NewString(),
		now:    time.Now,
	}
	for i, a := range seed {
		if _, dup := s.index[a.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, a.ID)
		}
		s.index[a.ID] = i
		s.assets[i] = a
	}
	return s, nil
}

// WithClock overrides the time source used to stamp update events.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Epoch identifies this store for the lifetime of the process.
func (s *Store) Epoch() string { return s.epoch }

// Assets returns a copy of the collection in display order.
func (s *Store) Assets() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

func (s *Store) Asset(id int) (models.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Asset{}, false
	}
	return s.assets[i], true
}

func (s *Store) BySymbol(symbol string) (models.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return models.Asset{}, false
}

// Symbols lists the tracked symbols in display order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.assets))
	for i, a := range s.assets {
		out[i] = a.Symbol
	}
	return out
}

// Latest returns the current state of an asset as an update event.
func (s *Store) Latest(symbol string) (models.PriceUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, a := range s.assets {
		if a.Symbol == symbol {
			return s.event(i), true
		}
	}
	return models.PriceUpdate{}, false
}

// ApplyUpdate overwrites the price and the three changes of asset id.
// Unknown ids are ignored.
func (s *Store) ApplyUpdate(id int, price float64, changes models.Changes) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	a := &s.assets[i]
	a.Price = price
	a.Change1h = changes.H1
	a.Change24h = changes.H24
	a.Change7d = changes.D7
	s.seq[i]++
	ev := s.event(i)
	s.mu.Unlock()

	s.notify(ev)
}

// Subscribe registers fn for every subsequent update. The returned func
// removes it and may be called more than once.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	e := &observerEntry{fn: fn}

	s.obsMu.Lock()
	s.observers = append(s.observers, e)
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, o := range s.observers {
				if o == e {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(ev models.PriceUpdate) {
	s.obsMu.Lock()
	obs := make([]*observerEntry, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.Unlock()

	for _, o := range obs {
		o.fn(ev)
	}
}

// event must be called with mu held.
func (s *Store) event(i int) models.PriceUpdate {
	a := s.assets[i]
	return models.PriceUpdate{
		ID:        a.ID,
		Symbol:    a.Symbol,
		Price:     a.Price,
		Changes:   a.Changes(),
		Timestamp: s.now().UnixMicro(),
		SeqID:     s.seq[i],
		Epoch:     s.epoch,
	}
}
