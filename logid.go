package swiftlog

import (
	"context"
	"sync"

	"github.com/swiftlog/swiftlog/errs"
)

// LogID is a generation-checked handle: index into the manager's slot
// slice plus the generation that slot held when this id was issued. A
// stale id (slot since reused by CreateLog) is rejected rather than
// dereferenced into the wrong log.
type LogID struct {
	index      uint32
	generation uint32
}

// IsZero reports whether id is the unset value; ForceFlush(LogID{})
// flushes every log rather than one in particular.
func (id LogID) IsZero() bool { return id.index == 0 && id.generation == 0 }

type logEntry struct {
	generation uint32
	consumer   *consumerHandle
}

// registry is the package-level container for every live log, per the
// lazily-initialized-container design (see DESIGN.md's Open Question
// resolutions): there is no global init-order dependency, just a
// zero-value-safe struct whose slots are populated by CreateLog.
type registry struct {
	mu      sync.RWMutex
	slots   []*logEntry
	lastGen uint32
}

var global = &registry{}

func (r *registry) create(entry *logEntry) LogID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastGen++
	entry.generation = r.lastGen

	for i, slot := range r.slots {
		if slot == nil {
			r.slots[i] = entry

			return LogID{index: uint32(i), generation: entry.generation}
		}
	}

	r.slots = append(r.slots, entry)

	return LogID{index: uint32(len(r.slots) - 1), generation: entry.generation}
}

func (r *registry) lookup(id LogID) (*logEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id.index) >= len(r.slots) {
		return nil, errs.ErrLogNotFound
	}

	slot := r.slots[id.index]
	if slot == nil || slot.generation != id.generation {
		return nil, errs.ErrLogNotFound
	}

	return slot, nil
}

// remove retires the slot at id. create gives every new log a generation
// no earlier log received, so any copy of id still in a caller's hands is
// recognized as stale rather than silently matched to a future CreateLog
// at the same index.
func (r *registry) remove(id LogID) (*logEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(id.index) >= len(r.slots) {
		return nil, errs.ErrLogNotFound
	}

	slot := r.slots[id.index]
	if slot == nil || slot.generation != id.generation {
		return nil, errs.ErrLogNotFound
	}

	r.slots[id.index] = nil

	return slot, nil
}

// Shutdown force-flushes and closes every live log, the counterpart to
// each CreateLog call's Init. Safe to call once at process exit.
func Shutdown(ctx context.Context) {
	global.mu.Lock()
	slots := global.slots
	global.slots = nil
	global.mu.Unlock()

	var wg sync.WaitGroup
	for _, slot := range slots {
		if slot == nil {
			continue
		}

		wg.Add(1)
		go func(s *logEntry) {
			defer wg.Done()
			s.consumer.shutdown(ctx)
		}(slot)
	}
	wg.Wait()
}
