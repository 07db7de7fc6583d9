package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/color"

	"rmem/internal"
)

type repl struct {
	rt  *internal.Runtime
	out io.Writer
}

var errUsage = errors.New(`commands:
  bind <name> <expr>       bind a value: 1, 1:5, "text", true, env, or another name
  list <name> <names...>   bind a list holding the named values by reference
  mutate <name> <i> <expr> replace element i (1-based) of a vector or list
  set <name> <field> <expr> set a field of an environment value
  assign <name> <expr>     superassignment: mutate an existing binding
  env <name> [parent]      bind a new environment (child of global or parent)
  trace <name>             start tracemem-style copy tracing
  refs <name>              show the saturating reference count
  size <names...>          combined size of the union of reachable values
  gc                       run a collection
  stats                    heap counters
  ls                       global bindings
  svg <file>               write the heap graph as SVG
  exit`)

func (r *repl) run(line string) error {
	toks, err := scanLine(line)
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return nil
	}
	if toks[0].typ != tokIdent {
		return errUsage
	}
	cmd, args := toks[0].lexeme, toks[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(r.out, errUsage.Error())
		return nil
	case "bind":
		return r.bind(args)
	case "list":
		return r.list(args)
	case "mutate":
		return r.mutate(args)
	case "set":
		return r.set(args)
	case "assign":
		return r.assign(args)
	case "env":
		return r.env(args)
	case "trace":
		return r.trace(args)
	case "refs":
		return r.refs(args)
	case "size":
		return r.size(args)
	case "gc":
		reclaimed := r.rt.Collect()
		fmt.Fprintf(r.out, "reclaimed %d values\n", reclaimed)
		return nil
	case "stats":
		return r.stats()
	case "ls":
		return r.ls()
	case "svg":
		return r.svg(args)
	}
	return errUsage
}

// eval turns the tokens of one expression into a value id. Bare identifiers
// alias the named binding: the id is shared, not copied.
func (r *repl) eval(toks []token) (internal.ValueID, error) {
	g := r.rt.GlobalEnv()
	switch {
	case len(toks) == 3 && toks[0].typ == tokNumber && toks[1].typ == tokColon && toks[2].typ == tokNumber:
		lo, hi := toks[0].literal, toks[2].literal
		var xs []float64
		for x := lo; x <= hi; x++ {
			xs = append(xs, x)
		}
		return r.rt.NumericVector(xs...)
	case len(toks) == 1 && toks[0].typ == tokNumber:
		return r.rt.Number(toks[0].literal)
	case len(toks) == 1 && toks[0].typ == tokString:
		return r.rt.Str(toks[0].lexeme)
	case len(toks) == 1 && toks[0].typ == tokIdent:
		switch toks[0].lexeme {
		case "true":
			return r.rt.Bool(true)
		case "false":
			return r.rt.Bool(false)
		case "env":
			return r.rt.NewEnv(g)
		}
		return r.rt.Lookup(g, toks[0].lexeme)
	}
	return internal.NoValue, errUsage
}

func (r *repl) bind(args []token) error {
	if len(args) < 2 || args[0].typ != tokIdent {
		return errUsage
	}
	id, err := r.eval(args[1:])
	if err != nil {
		return err
	}
	if err := r.rt.Define(r.rt.GlobalEnv(), args[0].lexeme, id); err != nil {
		return err
	}
	r.show(args[0].lexeme, id)
	return nil
}

func (r *repl) list(args []token) error {
	if len(args) < 1 || args[0].typ != tokIdent {
		return errUsage
	}
	g := r.rt.GlobalEnv()
	elems := make([]internal.ValueID, 0, len(args)-1)
	for _, a := range args[1:] {
		if a.typ != tokIdent {
			return errUsage
		}
		id, err := r.rt.Lookup(g, a.lexeme)
		if err != nil {
			return err
		}
		elems = append(elems, id)
	}
	id, err := r.rt.List(elems...)
	if err != nil {
		return err
	}
	if err := r.rt.Define(g, args[0].lexeme, id); err != nil {
		return err
	}
	r.show(args[0].lexeme, id)
	return nil
}

func (r *repl) mutate(args []token) error {
	if len(args) < 3 || args[0].typ != tokIdent || args[1].typ != tokNumber {
		return errUsage
	}
	val, err := r.eval(args[2:])
	if err != nil {
		return err
	}
	g := r.rt.GlobalEnv()
	// R-style 1-based index on the command line
	if err := r.rt.Mutate(g, args[0].lexeme, int(args[1].literal)-1, val); err != nil {
		return err
	}
	id, err := r.rt.Lookup(g, args[0].lexeme)
	if err != nil {
		return err
	}
	r.show(args[0].lexeme, id)
	return nil
}

func (r *repl) set(args []token) error {
	if len(args) < 3 || args[0].typ != tokIdent || args[1].typ != tokIdent {
		return errUsage
	}
	val, err := r.eval(args[2:])
	if err != nil {
		return err
	}
	return r.rt.Mutate(r.rt.GlobalEnv(), args[0].lexeme, args[1].lexeme, val)
}

func (r *repl) assign(args []token) error {
	if len(args) < 2 || args[0].typ != tokIdent {
		return errUsage
	}
	id, err := r.eval(args[1:])
	if err != nil {
		return err
	}
	if err := r.rt.Assign(r.rt.GlobalEnv(), args[0].lexeme, id); err != nil {
		return err
	}
	r.show(args[0].lexeme, id)
	return nil
}

func (r *repl) env(args []token) error {
	if len(args) < 1 || args[0].typ != tokIdent {
		return errUsage
	}
	g := r.rt.GlobalEnv()
	parent := g
	if len(args) == 2 && args[1].typ == tokIdent {
		id, err := r.rt.Lookup(g, args[1].lexeme)
		if err != nil {
			return err
		}
		parent = id
	}
	id, err := r.rt.NewEnv(parent)
	if err != nil {
		return err
	}
	if err := r.rt.Define(g, args[0].lexeme, id); err != nil {
		return err
	}
	r.show(args[0].lexeme, id)
	return nil
}

func (r *repl) trace(args []token) error {
	if len(args) != 1 || args[0].typ != tokIdent {
		return errUsage
	}
	id, err := r.rt.Lookup(r.rt.GlobalEnv(), args[0].lexeme)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.rt.Trace(id))
	out := r.out
	rt := r.rt
	r.rt.OnCopy(id, func(old, new internal.ValueID) {
		fmt.Fprintln(out, color.Yellow(fmt.Sprintf("tracemem[%s -> %s]", rt.Trace(old), rt.Trace(new))))
	})
	return nil
}

func (r *repl) refs(args []token) error {
	if len(args) != 1 || args[0].typ != tokIdent {
		return errUsage
	}
	id, err := r.rt.Lookup(r.rt.GlobalEnv(), args[0].lexeme)
	if err != nil {
		return err
	}
	n, err := r.rt.Refs(id)
	if err != nil {
		return err
	}
	kind, err := r.rt.Kind(id)
	if err != nil {
		return err
	}
	names := [...]string{"0", "1", "many"}
	fmt.Fprintf(r.out, "%s, refs %s\n", kind, names[n])
	return nil
}

func (r *repl) size(args []token) error {
	g := r.rt.GlobalEnv()
	ids := make([]internal.ValueID, 0, len(args))
	for _, a := range args {
		if a.typ != tokIdent {
			return errUsage
		}
		id, err := r.rt.Lookup(g, a.lexeme)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	fmt.Fprintln(r.out, bytes.Format(int64(r.rt.SizeOf(ids...))))
	return nil
}

func (r *repl) stats() error {
	s := r.rt.Stats()
	fmt.Fprintf(r.out, "live %d (%s), allocated %d, collections %d, reclaimed %d, copies %d\n",
		s.Live, bytes.Format(int64(s.LiveBytes)), s.Allocated, s.Collections, s.Reclaimed, s.Copies)
	return nil
}

func (r *repl) ls() error {
	g := r.rt.GlobalEnv()
	names, err := r.rt.Bindings(g)
	if err != nil {
		return err
	}
	for _, name := range names {
		id, err := r.rt.Lookup(g, name)
		if err != nil {
			return err
		}
		r.show(name, id)
	}
	return nil
}

func (r *repl) svg(args []token) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := os.Create(args[0].lexeme)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.rt.WriteSVG(f)
}

func (r *repl) show(name string, id internal.ValueID) {
	fmt.Fprintf(r.out, "%s = %s\n", name, r.rt.Display(id))
}
