package internal

import "github.com/sirupsen/logrus"

// Collect runs one stop-the-world mark and sweep over the arena and returns
// the number of values reclaimed.
//
// The mark phase seeds from the root set: the global environment, every
// call-frame environment on the stack, and the protect stack. It walks an
// explicit worklist rather than recursing, so self-referential environments
// and arbitrary cycles terminate cleanly; the liveness bitmap doubles as the
// visited set. Values kept alive only by a cycle among themselves are
// unreachable from the roots and get swept, which is exactly what the
// saturating reference counts cannot do.
func (rt *Runtime) Collect() int {
	s := rt.store
	s.resetMarks()

	work := make([]ValueID, 0, 64)
	work = append(work, rt.global)
	work = append(work, rt.stack...)
	work = append(work, rt.protected...)

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if id == NoValue || s.marked(id) {
			continue
		}
		v := s.get(id)
		if v == nil {
			continue
		}
		s.mark(id)
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

	rt.forgetDead()
	reclaimed := s.sweep()

	rt.stats.Collections++
	rt.stats.Reclaimed += reclaimed
	rt.log.WithFields(logrus.Fields{
		"reclaimed":  reclaimed,
		"live":       s.liveCount,
		"live_bytes": s.liveBytes,
	}).Debug("collection finished")
	return reclaimed
}

// forgetDead drops trace labels and copy hooks attached to values the sweep
// is about to reclaim.
func (rt *Runtime) forgetDead() {
	for id := range rt.traced {
		if !rt.store.marked(id) {
			delete(rt.traced, id)
		}
	}
	for id := range rt.labels {
		if !rt.store.marked(id) {
			delete(rt.labels, id)
		}
	}
	for id := range rt.hooks {
		if !rt.store.marked(id) {
			delete(rt.hooks, id)
		}
	}
}
