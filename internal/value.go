package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueID is a stable identity into the value arena. In-place mutation
// changes a value's payload, never its id.
type ValueID int

const NoValue ValueID = -1

type valueKind int

const (
	kindNumber valueKind = iota
	kindBool
	kindString
	kindVector
	kindList
	kindEnvironment
	kindClosure
)

func (k valueKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindBool:
		return "bool"
	case kindString:
		return "string"
	case kindVector:
		return "vector"
	case kindList:
		return "list"
	case kindEnvironment:
		return "environment"
	case kindClosure:
		return "closure"
	}
	return "unknown"
}

// refcount has three observable states. Once saturated at refMany it never
// decrements, so a value that was ever shared stays "shared" for the rest of
// its life even after bindings go away.
type refcount int

const (
	refZero refcount = iota
	refOne
	refMany
)

func (r refcount) inc() refcount {
	if r == refZero {
		return refOne
	}
	return refMany
}

func (r refcount) dec() refcount {
	if r == refOne {
		return refZero
	}
	return r
}

type rNumber float64

type rBool bool

type rString string

// rVector is a sequence of scalars held by reference, so interned strings
// repeated across vectors share one arena entry.
type rVector struct {
	elems []ValueID
}

// rList is an ordered aggregate of references to arbitrary values, with an
// optional name per slot ("" means unnamed).
type rList struct {
	names []string
	elems []ValueID
}

// rEnvironment maps names to value ids in insertion order and links to a
// single parent environment (NoValue at the top of the chain).
type rEnvironment struct {
	parent ValueID
	names  []string
	vars   map[string]ValueID
}

// BodyFn is a closure body. It runs inside env, a fresh child of the
// closure's defining environment.
type BodyFn func(rt *Runtime, env ValueID) (ValueID, error)

type rClosure struct {
	name    string
	params  []string
	closure ValueID // defining environment
	body    BodyFn
}

type value struct {
	id      ValueID
	kind    valueKind
	refs    refcount
	payload interface{}
}

const headerBytes = 56

// payloadBytes approximates the heap cost of one arena entry's payload,
// excluding anything it references.
func payloadBytes(kind valueKind, payload interface{}) int {
	switch p := payload.(type) {
	case rNumber, rBool:
		return 8
	case rString:
		return len(p)
	case *rVector:
		return 8 * len(p.elems)
	case *rList:
		n := 8 * len(p.elems)
		for _, name := range p.names {
			n += len(name)
		}
		return n
	case *rEnvironment:
		n := 0
		for _, name := range p.names {
			n += len(name) + 16
		}
		return n + 8
	case *rClosure:
		return 64
	}
	return 0
}

func (v *value) shallowCopyPayload() interface{} {
	switch p := v.payload.(type) {
	case *rVector:
		elems := make([]ValueID, len(p.elems))
		copy(elems, p.elems)
		return &rVector{elems: elems}
	case *rList:
		names := make([]string, len(p.names))
		copy(names, p.names)
		elems := make([]ValueID, len(p.elems))
		copy(elems, p.elems)
		return &rList{names: names, elems: elems}
	}
	return v.payload
}

// Display renders a value the way the REPL prints it.
func (rt *Runtime) Display(id ValueID) string {
	v := rt.store.get(id)
	if v == nil {
		return "<freed>"
	}
	switch p := v.payload.(type) {
	case rNumber:
		return strconv.FormatFloat(float64(p), 'g', -1, 64)
	case rBool:
		if p {
			return "TRUE"
		}
		return "FALSE"
	case rString:
		return "\"" + string(p) + "\""
	case *rVector:
		parts := make([]string, len(p.elems))
		for i, e := range p.elems {
			parts[i] = rt.Display(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *rList:
		parts := make([]string, len(p.elems))
		for i, e := range p.elems {
			if p.names[i] != "" {
				parts[i] = p.names[i] + " = " + rt.Display(e)
			} else {
				parts[i] = rt.Display(e)
			}
		}
		return "list(" + strings.Join(parts, ", ") + ")"
	case *rEnvironment:
		return fmt.Sprintf("<environment: %s>", rt.label(id))
	case *rClosure:
		if p.name != "" {
			return fmt.Sprintf("<fn %s>", p.name)
		}
		return "<fn>"
	}
	return "<unknown>"
}
