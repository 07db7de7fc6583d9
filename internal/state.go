package internal

import (
	"errors"
	"io/ioutil"

	"github.com/sirupsen/logrus"
)

// Runtime errors
var ErrNameNotFound = errors.New("object not found")
var ErrImmutableTarget = errors.New("invalid mutation target")
var ErrOutOfMemory = errors.New("allocation would exceed the heap ceiling")

// DefaultHeapCeiling is the soft memory ceiling used when Config leaves it
// zero. The exact threshold is a tunable, not a contract.
const DefaultHeapCeiling = 4 << 20

// Config configures a Runtime. The zero value works.
type Config struct {
	// HeapCeiling is the soft live-byte ceiling. A collection runs before
	// any allocation that would cross it; if the heap is still over after
	// sweeping, the allocation fails with ErrOutOfMemory.
	HeapCeiling int

	// Logger receives structured GC, copy and heap-pressure events. Nil
	// means discard.
	Logger *logrus.Logger
}

// Stats is a snapshot of heap activity counters.
type Stats struct {
	Live        int
	LiveBytes   int
	Allocated   int
	Collections int
	Reclaimed   int
	Copies      int
}

// CopyHook observes copy-on-modify allocations for one traced value.
type CopyHook func(old, new ValueID)

// Runtime owns one value arena and one environment tree. All operations are
// synchronous and run to completion; a Runtime must not be shared across
// goroutines.
type Runtime struct {
	store   *store
	ceiling int

	global    ValueID
	stack     []ValueID // call-frame environments, GC roots
	protected []ValueID // explicitly pinned ids, GC roots

	traced map[ValueID]bool
	labels map[ValueID]string
	hooks  map[ValueID][]CopyHook

	stats Stats
	log   *logrus.Logger
}

// NewRuntime builds a fresh simulator with its own isolated string pool and
// a top-level environment already in place.
func NewRuntime(cfg Config) *Runtime {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(ioutil.Discard)
	}
	ceiling := cfg.HeapCeiling
	if ceiling <= 0 {
		ceiling = DefaultHeapCeiling
	}
	rt := &Runtime{
		store:   newStore(newStringPool()),
		ceiling: ceiling,
		traced:  make(map[ValueID]bool),
		labels:  make(map[ValueID]string),
		hooks:   make(map[ValueID][]CopyHook),
		log:     log,
	}
	rt.global = rt.store.allocate(kindEnvironment, &rEnvironment{
		parent: NoValue,
		vars:   make(map[string]ValueID),
	})
	return rt
}

// GlobalEnv returns the top-level environment, the root of every lookup
// chain and the first member of the GC root set.
func (rt *Runtime) GlobalEnv() ValueID {
	return rt.global
}

// Stats returns a copy of the activity counters.
func (rt *Runtime) Stats() Stats {
	s := rt.stats
	s.Live = rt.store.liveCount
	s.LiveBytes = rt.store.liveBytes
	return s
}

// alloc routes every allocation through the ceiling check so collection
// triggers itself under pressure.
func (rt *Runtime) alloc(kind valueKind, payload interface{}) (ValueID, error) {
	need := headerBytes + payloadBytes(kind, payload)
	if rt.store.liveBytes+need > rt.ceiling {
		rt.log.WithFields(logrus.Fields{
			"live_bytes": rt.store.liveBytes,
			"need":       need,
			"ceiling":    rt.ceiling,
		}).Debug("heap pressure, collecting")
		rt.Collect()
		if rt.store.liveBytes+need > rt.ceiling {
			rt.log.WithField("live_bytes", rt.store.liveBytes).Warn("heap ceiling reached")
			return NoValue, ErrOutOfMemory
		}
	}
	id := rt.store.allocate(kind, payload)
	rt.stats.Allocated++
	return id, nil
}

// Protect pins an id as a GC root until a matching Unprotect. Fresh ids are
// unreachable until bound somewhere, so callers that allocate more than once
// before binding must protect the intermediates.
func (rt *Runtime) Protect(id ValueID) {
	rt.protected = append(rt.protected, id)
}

// Unprotect pops the n most recently protected ids.
func (rt *Runtime) Unprotect(n int) {
	if n > len(rt.protected) {
		n = len(rt.protected)
	}
	rt.protected = rt.protected[:len(rt.protected)-n]
}
