package internal

import "fmt"

// Number allocates a fresh scalar. Structurally equal numbers never share an
// identity; only strings intern.
func (rt *Runtime) Number(f float64) (ValueID, error) {
	return rt.alloc(kindNumber, rNumber(f))
}

func (rt *Runtime) Bool(b bool) (ValueID, error) {
	return rt.alloc(kindBool, rBool(b))
}

// Str returns the pooled entry for s, allocating one on first sight. Every
// string scalar goes through the pool, so equal literals share one id.
func (rt *Runtime) Str(s string) (ValueID, error) {
	if id, ok := rt.store.pool.lookup(s); ok {
		return id, nil
	}
	id, err := rt.alloc(kindString, rString(s))
	if err != nil {
		return NoValue, err
	}
	rt.store.pool.put(s, id)
	return id, nil
}

// NumericVector allocates a sequence of fresh number scalars.
func (rt *Runtime) NumericVector(xs ...float64) (ValueID, error) {
	elems := make([]ValueID, len(xs))
	for i, x := range xs {
		id, err := rt.Number(x)
		if err != nil {
			rt.Unprotect(i)
			return NoValue, err
		}
		elems[i] = id
		rt.Protect(id)
	}
	rt.Unprotect(len(xs))
	return rt.vectorOf(elems)
}

// StringVector allocates a sequence of pooled string scalars. Repeated
// content shares storage, which is what makes a vector of one word cheap.
func (rt *Runtime) StringVector(ss ...string) (ValueID, error) {
	elems := make([]ValueID, len(ss))
	for i, s := range ss {
		id, err := rt.Str(s)
		if err != nil {
			rt.Unprotect(i)
			return NoValue, err
		}
		elems[i] = id
		rt.Protect(id)
	}
	rt.Unprotect(len(ss))
	return rt.vectorOf(elems)
}

func (rt *Runtime) vectorOf(elems []ValueID) (ValueID, error) {
	for _, e := range elems {
		rt.Protect(e)
	}
	id, err := rt.alloc(kindVector, &rVector{elems: elems})
	rt.Unprotect(len(elems))
	if err != nil {
		return NoValue, err
	}
	for _, e := range elems {
		rt.store.retain(e)
	}
	return id, nil
}

// List allocates an aggregate holding the given values by reference.
func (rt *Runtime) List(elems ...ValueID) (ValueID, error) {
	return rt.NamedList(make([]string, len(elems)), elems)
}

// NamedList is List with a name per slot; "" leaves a slot unnamed.
func (rt *Runtime) NamedList(names []string, elems []ValueID) (ValueID, error) {
	if len(names) != len(elems) {
		return NoValue, fmt.Errorf("%w: %d names for %d elements", ErrImmutableTarget, len(names), len(elems))
	}
	ns := make([]string, len(names))
	copy(ns, names)
	es := make([]ValueID, len(elems))
	copy(es, elems)
	for _, e := range es {
		rt.Protect(e)
	}
	id, err := rt.alloc(kindList, &rList{names: ns, elems: es})
	rt.Unprotect(len(es))
	if err != nil {
		return NoValue, err
	}
	for _, e := range es {
		rt.store.retain(e)
	}
	return id, nil
}

// Closure allocates a function value that closes over defEnv. Invocation
// always evaluates in a child of defEnv, wherever the call happens.
func (rt *Runtime) Closure(name string, params []string, defEnv ValueID, body BodyFn) (ValueID, error) {
	if _, err := rt.envPayload(defEnv); err != nil {
		return NoValue, err
	}
	ps := make([]string, len(params))
	copy(ps, params)
	return rt.alloc(kindClosure, &rClosure{
		name:    name,
		params:  ps,
		closure: defEnv,
		body:    body,
	})
}

// Call applies a closure. The frame environment is a fresh child of the
// closure's defining environment, so free names resolve lexically and see
// the defining environment as it is at call time, not as it was at
// definition time. The frame joins the root set for the duration of the
// call.
func (rt *Runtime) Call(fn ValueID, args ...ValueID) (ValueID, error) {
	v := rt.store.get(fn)
	if v == nil {
		return NoValue, fmt.Errorf("%w: no such value %d", ErrImmutableTarget, fn)
	}
	cl, ok := v.payload.(*rClosure)
	if !ok {
		return NoValue, fmt.Errorf("%w: %s is not callable", ErrImmutableTarget, v.kind)
	}
	if len(args) != len(cl.params) {
		return NoValue, fmt.Errorf("%w: %s takes %d arguments, got %d",
			ErrImmutableTarget, rt.Display(fn), len(cl.params), len(args))
	}
	for _, a := range args {
		rt.Protect(a)
	}
	frame, err := rt.NewEnv(cl.closure)
	rt.Unprotect(len(args))
	if err != nil {
		return NoValue, err
	}
	rt.stack = append(rt.stack, frame)
	defer func() {
		rt.stack = rt.stack[:len(rt.stack)-1]
	}()
	for i, p := range cl.params {
		if err := rt.Define(frame, p, args[i]); err != nil {
			return NoValue, err
		}
	}
	return cl.body(rt, frame)
}

// Kind reports a value's kind as a string, for hosts that print diagnostics.
func (rt *Runtime) Kind(id ValueID) (string, error) {
	v := rt.store.get(id)
	if v == nil {
		return "", fmt.Errorf("%w: no such value %d", ErrImmutableTarget, id)
	}
	return v.kind.String(), nil
}

// Refs exposes the saturating reference count for inspection.
func (rt *Runtime) Refs(id ValueID) (int, error) {
	v := rt.store.get(id)
	if v == nil {
		return 0, fmt.Errorf("%w: no such value %d", ErrImmutableTarget, id)
	}
	return int(v.refs), nil
}

// Elems returns an aggregate's element ids.
func (rt *Runtime) Elems(id ValueID) ([]ValueID, error) {
	v := rt.store.get(id)
	if v == nil {
		return nil, fmt.Errorf("%w: no such value %d", ErrImmutableTarget, id)
	}
	switch p := v.payload.(type) {
	case *rVector:
		out := make([]ValueID, len(p.elems))
		copy(out, p.elems)
		return out, nil
	case *rList:
		out := make([]ValueID, len(p.elems))
		copy(out, p.elems)
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s has no elements", ErrImmutableTarget, v.kind)
}

// Scalar reads a scalar payload back out for hosts and tests.
func (rt *Runtime) Scalar(id ValueID) (interface{}, error) {
	v := rt.store.get(id)
	if v == nil {
		return nil, fmt.Errorf("%w: no such value %d", ErrImmutableTarget, id)
	}
	switch p := v.payload.(type) {
	case rNumber:
		return float64(p), nil
	case rBool:
		return bool(p), nil
	case rString:
		return string(p), nil
	}
	return nil, fmt.Errorf("%w: %s is not a scalar", ErrImmutableTarget, v.kind)
}
