package internal

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// label returns the opaque per-identity label used everywhere a value's
// address would be shown. Labels are stable for the life of the value.
func (rt *Runtime) label(id ValueID) string {
	if lbl, ok := rt.labels[id]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("<0x%x>", 0x55d8a0+int(id)*0x68)
	rt.labels[id] = lbl
	return lbl
}

// Trace marks id for copy tracing and returns its label. Copies of a traced
// value are traced in turn, so a chain of copy-on-modify events stays
// observable, the way tracemem output follows an object around.
func (rt *Runtime) Trace(id ValueID) string {
	rt.traced[id] = true
	return rt.label(id)
}

// Untrace stops copy tracing for id. Registered hooks stay.
func (rt *Runtime) Untrace(id ValueID) {
	delete(rt.traced, id)
}

// OnCopy registers a hook fired synchronously whenever a copy-on-modify
// allocation derives a new value from id. The hook observes the event only;
// the copy is already complete when it runs.
func (rt *Runtime) OnCopy(id ValueID, hook CopyHook) {
	rt.hooks[id] = append(rt.hooks[id], hook)
}

func (rt *Runtime) notifyCopy(old, new ValueID) {
	if rt.traced[old] {
		rt.traced[new] = true
		rt.log.WithFields(logrus.Fields{
			"from": rt.label(old),
			"to":   rt.label(new),
		}).Info("tracemem: copied")
	}
	for _, hook := range rt.hooks[old] {
		hook(old, new)
	}
}

// SizeOf estimates the bytes held by the union of everything reachable from
// the given ids. Shared substructure is charged once, so the combined size
// of two objects that share everything equals the size of the superset.
func (rt *Runtime) SizeOf(ids ...ValueID) int {
	seen := make(map[ValueID]bool)
	work := make([]ValueID, 0, len(ids))
	work = append(work, ids...)

	total := 0
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if id == NoValue || seen[id] {
			continue
		}
		v := rt.store.get(id)
		if v == nil {
			continue
		}
		seen[id] = true
		total += headerBytes + payloadBytes(v.kind, v.payload)
		switch p := v.payload.(type) {
		case *rEnvironment:
			work = append(work, p.parent)
			for _, name := range p.names {
				work = append(work, p.vars[name])
			}
		case *rVector:
			work = append(work, p.elems...)
		case *rList:
			work = append(work, p.elems...)
		case *rClosure:
			work = append(work, p.closure)
		}
	}
	return total
}
