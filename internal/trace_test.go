package internal

import (
	"testing"
)

func TestStringInterning(t *testing.T) {
	rt := newTestRuntime()

	s1, err := rt.Str("bananas")
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := rt.Str("bananas")
	if s1 != s2 {
		t.Fatalf("equal literals got distinct identities %d and %d", s1, s2)
	}

	// a different runtime has its own isolated pool
	other := NewRuntime(Config{})
	s3, _ := other.Str("bananas")
	s4, _ := other.Str("bananas")
	if s3 != s4 {
		t.Error("second runtime's pool failed to dedup")
	}

	// sweeping a pooled string resets the pool for that content
	rt.Collect() // s1 is unbound garbage
	s5, _ := rt.Str("bananas")
	if s5 == s1 {
		t.Error("pool handed out a reclaimed identity")
	}
	if rt.store.get(s5) == nil {
		t.Fatal("fresh pooled entry missing")
	}

	// numbers never intern
	n1, _ := rt.Number(7)
	n2, _ := rt.Number(7)
	if n1 == n2 {
		t.Error("structurally equal numbers shared an identity")
	}
}

func TestRepeatedStringVectorIsCheap(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	one, _ := rt.Str("bananas")
	mustDefine(t, rt, g, "one", one)
	single := rt.SizeOf(one)

	words := make([]string, 100)
	for i := range words {
		words[i] = "bananas"
	}
	vec, err := rt.StringVector(words...)
	if err != nil {
		t.Fatal(err)
	}
	mustDefine(t, rt, g, "vec", vec)

	// all hundred slots point at the one pooled entry
	if got := rt.SizeOf(vec); got >= 100*single/4 {
		t.Errorf("SizeOf(vec) = %d, want far less than 100 * %d", got, single)
	}
}

func TestSizeOfCountsSharedStructureOnce(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	x, _ := rt.NumericVector(1, 2, 3)
	mustDefine(t, rt, g, "x", x)
	y, _ := rt.NumericVector(4, 5, 6)
	mustDefine(t, rt, g, "y", y)

	// disjoint: sizes are exactly additive
	if rt.SizeOf(x)+rt.SizeOf(y) != rt.SizeOf(x, y) {
		t.Errorf("disjoint sizes not additive: %d + %d != %d",
			rt.SizeOf(x), rt.SizeOf(y), rt.SizeOf(x, y))
	}

	// fully shared: the union is the superset
	mustDefine(t, rt, g, "z", x)
	z, _ := rt.Lookup(g, "z")
	if rt.SizeOf(x, z) != rt.SizeOf(x) {
		t.Errorf("fully shared union = %d, want %d", rt.SizeOf(x, z), rt.SizeOf(x))
	}
	if rt.SizeOf(x, z) >= rt.SizeOf(x)+rt.SizeOf(z) {
		t.Error("shared union not smaller than the sum")
	}

	// partially shared: one nested vector in two lists
	l1, _ := rt.List(x)
	mustDefine(t, rt, g, "l1", l1)
	l2, _ := rt.List(x)
	mustDefine(t, rt, g, "l2", l2)
	union := rt.SizeOf(l1, l2)
	if union >= rt.SizeOf(l1)+rt.SizeOf(l2) {
		t.Errorf("union %d not smaller than sum %d", union, rt.SizeOf(l1)+rt.SizeOf(l2))
	}
}

func TestTraceLabelsAreStable(t *testing.T) {
	rt := newTestRuntime()

	x, _ := rt.NumericVector(1)
	rt.Protect(x)
	lbl := rt.Trace(x)
	if lbl == "" || lbl != rt.Trace(x) {
		t.Errorf("label changed between calls: %q then %q", lbl, rt.Trace(x))
	}

	y, _ := rt.NumericVector(1)
	rt.Protect(y)
	if rt.Trace(y) == lbl {
		t.Error("distinct values shared a label")
	}
}

func TestTracingFollowsCopies(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	x, _ := rt.NumericVector(1, 2, 3)
	mustDefine(t, rt, g, "x", x)
	mustDefine(t, rt, g, "y", x)
	rt.Trace(x)

	if err := rt.Mutate(g, "y", 0, mustNumber(t, rt, 9)); err != nil {
		t.Fatal(err)
	}
	y, _ := rt.Lookup(g, "y")
	if !rt.traced[y] {
		t.Error("copy of a traced value is not traced")
	}

	rt.Untrace(x)
	if rt.traced[x] {
		t.Error("Untrace left the flag set")
	}
}

func TestStatsCountCopies(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	x, _ := rt.NumericVector(1, 2, 3)
	mustDefine(t, rt, g, "x", x)
	mustDefine(t, rt, g, "y", x)

	fired := 0
	rt.OnCopy(x, func(old, new ValueID) { fired++ })
	if err := rt.Mutate(g, "y", 0, mustNumber(t, rt, 9)); err != nil {
		t.Fatal(err)
	}

	s := rt.Stats()
	if s.Copies != fired || s.Copies != 1 {
		t.Errorf("Stats.Copies = %d, hooks fired = %d, want 1 and 1", s.Copies, fired)
	}
	if s.Live == 0 || s.Allocated == 0 {
		t.Error("live/allocated counters missing")
	}
}
