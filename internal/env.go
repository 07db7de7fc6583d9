package internal

import "fmt"

// NewEnv allocates an environment value whose lookup chain continues at
// parent. Every environment created through the public API encloses some
// existing environment; only the global environment has no parent.
func (rt *Runtime) NewEnv(parent ValueID) (ValueID, error) {
	if _, err := rt.envPayload(parent); err != nil {
		return NoValue, err
	}
	return rt.alloc(kindEnvironment, &rEnvironment{
		parent: parent,
		vars:   make(map[string]ValueID),
	})
}

func (rt *Runtime) envPayload(id ValueID) (*rEnvironment, error) {
	v := rt.store.get(id)
	if v == nil {
		return nil, fmt.Errorf("%w: no such value %d", ErrImmutableTarget, id)
	}
	e, ok := v.payload.(*rEnvironment)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an environment", ErrImmutableTarget, v.kind)
	}
	return e, nil
}

// Define creates or overwrites a binding in env itself, never in a parent.
func (rt *Runtime) Define(env ValueID, name string, val ValueID) error {
	e, err := rt.envPayload(env)
	if err != nil {
		return err
	}
	before := payloadBytes(kindEnvironment, e)
	if old, ok := e.vars[name]; ok {
		rt.store.release(old)
	} else {
		e.names = append(e.names, name)
	}
	e.vars[name] = val
	rt.store.retain(val)
	rt.store.adjustBytes(before, payloadBytes(kindEnvironment, e))
	return nil
}

// Lookup resolves name against env, then its parents, and fails with
// ErrNameNotFound at the top of the chain.
func (rt *Runtime) Lookup(env ValueID, name string) (ValueID, error) {
	e, err := rt.envPayload(env)
	if err != nil {
		return NoValue, err
	}
	if id, ok := e.vars[name]; ok {
		return id, nil
	}
	if e.parent != NoValue {
		return rt.Lookup(e.parent, name)
	}
	return NoValue, fmt.Errorf("%w: %q", ErrNameNotFound, name)
}

// Assign mutates an existing binding found by the same chain search Lookup
// uses. Unlike Define it never creates a binding: assigning an unbound name
// fails even if a parent could have hosted it. This is superassignment.
func (rt *Runtime) Assign(env ValueID, name string, val ValueID) error {
	e, err := rt.envPayload(env)
	if err != nil {
		return err
	}
	if old, ok := e.vars[name]; ok {
		rt.store.release(old)
		e.vars[name] = val
		rt.store.retain(val)
		return nil
	}
	if e.parent != NoValue {
		return rt.Assign(e.parent, name, val)
	}
	return fmt.Errorf("%w: %q", ErrNameNotFound, name)
}

// Bindings lists an environment's own names in definition order.
func (rt *Runtime) Bindings(env ValueID) ([]string, error) {
	e, err := rt.envPayload(env)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out, nil
}

// Parent returns an environment's enclosing environment, or NoValue for the
// top level.
func (rt *Runtime) Parent(env ValueID) (ValueID, error) {
	e, err := rt.envPayload(env)
	if err != nil {
		return NoValue, err
	}
	return e.parent, nil
}
