package internal

// store is the value arena. Slots are addressed by ValueID and never reused:
// allocate always hands out a fresh identity, and the sweep phase just nils
// dead slots and clears their liveness bit. Reachability is tracked in a
// separate bitmap so cyclic structures are a non-issue for reclamation.
type store struct {
	values []*value
	marks  []uint64
	pool   *stringPool

	liveCount int
	liveBytes int
}

func newStore(pool *stringPool) *store {
	return &store{pool: pool}
}

func (s *store) allocate(kind valueKind, payload interface{}) ValueID {
	id := ValueID(len(s.values))
	v := &value{id: id, kind: kind, refs: refZero, payload: payload}
	s.values = append(s.values, v)
	s.liveCount++
	s.liveBytes += headerBytes + payloadBytes(kind, payload)
	return id
}

func (s *store) get(id ValueID) *value {
	if id < 0 || int(id) >= len(s.values) {
		return nil
	}
	return s.values[id]
}

func (s *store) retain(id ValueID) {
	if v := s.get(id); v != nil {
		v.refs = v.refs.inc()
	}
}

func (s *store) release(id ValueID) {
	if v := s.get(id); v != nil {
		v.refs = v.refs.dec()
	}
}

func (s *store) resetMarks() {
	n := (len(s.values) + 63) / 64
	if cap(s.marks) < n {
		s.marks = make([]uint64, n)
		return
	}
	s.marks = s.marks[:n]
	for i := range s.marks {
		s.marks[i] = 0
	}
}

func (s *store) mark(id ValueID) {
	s.marks[id/64] |= 1 << uint(id%64)
}

func (s *store) marked(id ValueID) bool {
	return s.marks[id/64]&(1<<uint(id%64)) != 0
}

// sweep reclaims every unmarked slot and reports how many values went away.
func (s *store) sweep() int {
	reclaimed := 0
	for i, v := range s.values {
		if v == nil || s.marked(ValueID(i)) {
			continue
		}
		if str, ok := v.payload.(rString); ok {
			if pooled, found := s.pool.lookup(string(str)); found && pooled == v.id {
				s.pool.drop(string(str))
			}
		}
		s.liveCount--
		s.liveBytes -= headerBytes + payloadBytes(v.kind, v.payload)
		s.values[i] = nil
		reclaimed++
	}
	return reclaimed
}

// adjustBytes keeps the live-byte estimate honest across in-place payload
// swaps, which can grow or shrink an entry without reallocating it.
func (s *store) adjustBytes(old, new int) {
	s.liveBytes += new - old
}
