package internal

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Mutate changes one element of the value bound to name, visible from env.
// The path is an int index (0-based) for vectors and lists, or a field name
// for environments.
//
// Whether the change happens in place or on a copy depends on the target's
// reference count: a count of one means no other binding can observe the
// change, so the payload mutates directly and the identity survives. A
// shared value is shallow-copied with the one element replaced, and name is
// rebound in env to the copy; the original payload is never touched.
// Environments are the deliberate exception: they mutate in place no matter
// how many bindings reference them.
//
// On any failure the heap and every binding are exactly as they were.
func (rt *Runtime) Mutate(env ValueID, name string, at interface{}, val ValueID) error {
	id, err := rt.Lookup(env, name)
	if err != nil {
		return err
	}
	v := rt.store.get(id)

	switch p := v.payload.(type) {
	case *rEnvironment:
		field, ok := at.(string)
		if !ok {
			return fmt.Errorf("%w: environment mutation needs a field name, got %T", ErrImmutableTarget, at)
		}
		// reference semantics: in place regardless of the count
		return rt.Define(id, field, val)

	case *rVector:
		idx, err := elemIndex(at, len(p.elems))
		if err != nil {
			return err
		}
		if !rt.isScalar(val) {
			return fmt.Errorf("%w: vector elements must be scalars", ErrImmutableTarget)
		}
		if v.refs == refOne {
			rt.store.release(p.elems[idx])
			p.elems[idx] = val
			rt.store.retain(val)
			return nil
		}
		return rt.copyOnWrite(env, name, v, idx, val)

	case *rList:
		idx, err := elemIndex(at, len(p.elems))
		if err != nil {
			return err
		}
		if val == id {
			// inserting a value into itself makes it shared; saturate so
			// the copy path runs and the result nests a copy instead of
			// forming a cycle
			v.refs = refMany
		}
		if v.refs == refOne {
			rt.store.release(p.elems[idx])
			p.elems[idx] = val
			rt.store.retain(val)
			return nil
		}
		return rt.copyOnWrite(env, name, v, idx, val)
	}

	return fmt.Errorf("%w: cannot mutate an element of a %s", ErrImmutableTarget, v.kind)
}

func elemIndex(at interface{}, n int) (int, error) {
	idx, ok := at.(int)
	if !ok {
		return 0, fmt.Errorf("%w: element mutation needs an int index, got %T", ErrImmutableTarget, at)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: index %d out of range [0,%d)", ErrImmutableTarget, idx, n)
	}
	return idx, nil
}

func (rt *Runtime) isScalar(id ValueID) bool {
	v := rt.store.get(id)
	if v == nil {
		return false
	}
	switch v.kind {
	case kindNumber, kindBool, kindString:
		return true
	}
	return false
}

// copyOnWrite allocates a shallow copy of old with the element at idx
// replaced by val, rebinds name in env to the copy, and fires copy hooks.
// Nested references carry over by id; nothing below the top level is
// duplicated.
func (rt *Runtime) copyOnWrite(env ValueID, name string, old *value, idx int, val ValueID) error {
	payload := old.shallowCopyPayload()
	var elems []ValueID
	switch p := payload.(type) {
	case *rVector:
		p.elems[idx] = val
		elems = p.elems
	case *rList:
		p.elems[idx] = val
		elems = p.elems
	}

	rt.Protect(val)
	newID, err := rt.alloc(old.kind, payload)
	rt.Unprotect(1)
	if err != nil {
		return err
	}
	for _, e := range elems {
		rt.store.retain(e)
	}
	if err := rt.Define(env, name, newID); err != nil {
		return err
	}

	rt.stats.Copies++
	rt.log.WithFields(logrus.Fields{
		"old": old.id,
		"new": newID,
	}).Debug("copy on modify")
	rt.notifyCopy(old.id, newID)
	return nil
}
