package internal

import (
	"errors"
	"testing"
)

func TestCollectReclaimsUnboundValues(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	x, _ := rt.NumericVector(1, 2, 3)
	mustDefine(t, rt, g, "x", x)

	// rebinding x orphans the vector and its three scalars
	mustDefine(t, rt, g, "x", mustNumber(t, rt, 0))

	reclaimed := rt.Collect()
	if reclaimed != 4 {
		t.Errorf("reclaimed %d values, want 4", reclaimed)
	}
	if rt.store.get(x) != nil {
		t.Error("orphaned vector survived the sweep")
	}
}

func TestSelfReferentialEnvironmentIsCollected(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	e, _ := rt.NewEnv(g)
	mustDefine(t, rt, g, "e", e)
	if err := rt.Mutate(g, "e", "self", e); err != nil {
		t.Fatal(err)
	}

	// still reachable through the root: the cycle must not hang the mark
	if reclaimed := rt.Collect(); reclaimed != 0 {
		t.Fatalf("reclaimed %d live values", reclaimed)
	}

	// drop the external reference; only the self-cycle remains
	mustDefine(t, rt, g, "e", mustNumber(t, rt, 0))
	rt.Collect()
	if rt.store.get(e) != nil {
		t.Error("self-referential environment survived with no external root")
	}
}

func TestCycleAcrossTwoEnvironmentsIsCollected(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	e1, _ := rt.NewEnv(g)
	mustDefine(t, rt, g, "e1", e1)
	e2, _ := rt.NewEnv(g)
	mustDefine(t, rt, g, "e2", e2)

	if err := rt.Mutate(g, "e1", "other", e2); err != nil {
		t.Fatal(err)
	}
	if err := rt.Mutate(g, "e2", "other", e1); err != nil {
		t.Fatal(err)
	}

	mustDefine(t, rt, g, "e1", mustNumber(t, rt, 0))
	mustDefine(t, rt, g, "e2", mustNumber(t, rt, 0))

	rt.Collect()
	if rt.store.get(e1) != nil || rt.store.get(e2) != nil {
		t.Error("mutually referencing environments survived; the tracing " +
			"collector must reclaim what reference counts cannot")
	}
}

func TestProtectPinsValues(t *testing.T) {
	rt := newTestRuntime()

	n := mustNumber(t, rt, 5)
	rt.Protect(n)
	rt.Collect()
	if rt.store.get(n) == nil {
		t.Fatal("protected value was swept")
	}

	rt.Unprotect(1)
	rt.Collect()
	if rt.store.get(n) != nil {
		t.Error("unprotected garbage survived")
	}
}

func TestCollectionTriggersUnderHeapPressure(t *testing.T) {
	rt := NewRuntime(Config{HeapCeiling: 8 << 10})

	// churn out garbage well past the ceiling; collections keep it afloat
	for i := 0; i < 500; i++ {
		if _, err := rt.Number(float64(i)); err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
	}
	if rt.Stats().Collections == 0 {
		t.Error("no collection ran despite heap pressure")
	}
}

func TestOutOfMemoryWhenNothingIsReclaimable(t *testing.T) {
	rt := NewRuntime(Config{HeapCeiling: 4 << 10})

	_, err := rt.NumericVector(make([]float64, 200)...)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}

	// the failed constructor must not leave its intermediates pinned
	if len(rt.protected) != 0 {
		t.Errorf("%d ids left on the protect stack", len(rt.protected))
	}
	rt.Collect()
	if _, err := rt.Number(1); err != nil {
		t.Errorf("small allocation after cleanup failed: %v", err)
	}
}

func TestCollectDropsTraceStateOfDeadValues(t *testing.T) {
	rt := newTestRuntime()
	g := rt.GlobalEnv()

	x, _ := rt.NumericVector(1)
	mustDefine(t, rt, g, "x", x)
	rt.Trace(x)
	rt.OnCopy(x, func(old, new ValueID) {})

	mustDefine(t, rt, g, "x", mustNumber(t, rt, 0))
	rt.Collect()

	if rt.traced[x] {
		t.Error("trace flag survived its value")
	}
	if _, ok := rt.labels[x]; ok {
		t.Error("label survived its value")
	}
	if len(rt.hooks[x]) != 0 {
		t.Error("copy hooks survived their value")
	}
}
