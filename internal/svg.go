package internal

import (
	"io"
	"sort"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const (
	svgNodeW   = 150
	svgNodeH   = 36
	svgColGap  = 240
	svgRowGap  = 60
	svgMargin  = 40
	envStyle   = "fill:#eef6ff;stroke:#3b6ea5;stroke-width:2"
	valStyle   = "fill:#fffbe6;stroke:#a58b3b;stroke-width:1"
	edgeStyle  = "stroke:#666;stroke-width:1"
	labelStyle = "font-family:monospace;font-size:12px"
)

type svgEdge struct {
	from, to ValueID
	label    string
}

// WriteSVG renders the reachable heap as a two-column diagram: environments
// on the left, values on the right, with labelled arrows for parent links,
// bindings and aggregate elements. It is the machine-drawn version of the
// box-and-arrow binding diagrams the REPL user is reasoning about.
func (rt *Runtime) WriteSVG(w io.Writer) error {
	envs, vals, edges := rt.graph()

	rows := len(envs)
	if len(vals) > rows {
		rows = len(vals)
	}
	width := svgMargin*2 + svgNodeW + svgColGap + svgNodeW
	height := svgMargin*2 + rows*svgRowGap

	pos := make(map[ValueID][2]int)
	for i, id := range envs {
		pos[id] = [2]int{svgMargin, svgMargin + i*svgRowGap}
	}
	for i, id := range vals {
		pos[id] = [2]int{svgMargin + svgNodeW + svgColGap, svgMargin + i*svgRowGap}
	}

	canvas := svg.New(w)
	canvas.Start(width, height)

	for _, e := range edges {
		f, ok1 := pos[e.from]
		t, ok2 := pos[e.to]
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := f[0]+svgNodeW, f[1]+svgNodeH/2
		x2, y2 := t[0], t[1]+svgNodeH/2
		if f[0] == t[0] {
			// same column, hook out to the left
			x1 = f[0]
			x2 = t[0]
		}
		canvas.Line(x1, y1, x2, y2, edgeStyle)
		canvas.Text((x1+x2)/2, (y1+y2)/2-4, e.label, labelStyle+";fill:#444")
	}

	for _, id := range envs {
		p := pos[id]
		canvas.Roundrect(p[0], p[1], svgNodeW, svgNodeH, 6, 6, envStyle)
		canvas.Text(p[0]+8, p[1]+22, "env "+rt.svgLabel(id), labelStyle)
	}
	for _, id := range vals {
		p := pos[id]
		v := rt.store.get(id)
		canvas.Roundrect(p[0], p[1], svgNodeW, svgNodeH, 14, 14, valStyle)
		canvas.Text(p[0]+8, p[1]+22, v.kind.String()+" "+rt.svgLabel(id), labelStyle)
	}

	canvas.End()
	return nil
}

// graph walks the roots and splits reachable ids into environments and
// plain values, with one edge per reference.
func (rt *Runtime) graph() (envs, vals []ValueID, edges []svgEdge) {
	seen := make(map[ValueID]bool)
	work := append([]ValueID{rt.global}, rt.stack...)
	work = append(work, rt.protected...)

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
		switch p := v.payload.(type) {
		case *rEnvironment:
			envs = append(envs, id)
			if p.parent != NoValue {
				edges = append(edges, svgEdge{id, p.parent, "parent"})
				work = append(work, p.parent)
			}
			for _, name := range p.names {
				edges = append(edges, svgEdge{id, p.vars[name], name})
				work = append(work, p.vars[name])
			}
		case *rVector:
			vals = append(vals, id)
			for i, e := range p.elems {
				edges = append(edges, svgEdge{id, e, indexLabel(i)})
				work = append(work, e)
			}
		case *rList:
			vals = append(vals, id)
			for i, e := range p.elems {
				lbl := p.names[i]
				if lbl == "" {
					lbl = indexLabel(i)
				}
				edges = append(edges, svgEdge{id, e, lbl})
				work = append(work, e)
			}
		case *rClosure:
			vals = append(vals, id)
			edges = append(edges, svgEdge{id, p.closure, "encloses"})
			work = append(work, p.closure)
		default:
			vals = append(vals, id)
		}
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i] < envs[j] })
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	return envs, vals, edges
}

func indexLabel(i int) string {
	return "[" + strconv.Itoa(i+1) + "]"
}

// svgLabel is the trace label with the angle brackets dropped; svgo writes
// text verbatim, so raw '<' would corrupt the document.
func (rt *Runtime) svgLabel(id ValueID) string {
	return strings.Trim(rt.label(id), "<>")
}
