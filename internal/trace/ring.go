package trace

// ring keeps the last cap(buf) events. Not synchronised; recorder holds the
// lock.
type ring struct {
	buf  []Event
	next int
	n    int
}

func newRing(size int) *ring {
	return &ring{buf: make([]Event, size)}
}

func (r *ring) add(ev Event) {
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// events returns a copy, oldest first.
func (r *ring) events() []Event {
	out := make([]Event, 0, r.n)
	start := (r.next - r.n + len(r.buf)) % len(r.buf)
	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
