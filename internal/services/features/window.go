package features

import "math"

// window is a fixed-size trailing buffer over float64 with a running sum.
// Non-finite values are kept in the buffer but excluded from the sum and counted in bad,
// so a single bad sample poisons the window only while it is inside it.
type window struct {
	buf     []float64
	idx     int
	count   int
	sum     float64
	nonzero int
	bad     int
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size)}
}

func (w *window) push(x float64) {
	if w.count >= len(w.buf) {
		w.evict(w.buf[w.idx])
	}
	w.buf[w.idx] = x
	switch {
	case !isFinite(x):
		w.bad++
	default:
		w.sum += x
		if x != 0 {
			w.nonzero++
		}
	}
	w.idx = (w.idx + 1) % len(w.buf)
	w.count++
}

func (w *window) evict(old float64) {
	if !isFinite(old) {
		w.bad--
		return
	}
	w.sum -= old
	if old != 0 {
		w.nonzero--
	}
}

func (w *window) size() int  { return len(w.buf) }
func (w *window) full() bool { return w.count >= len(w.buf) }

// mean is NaN until the window is full or while it holds a non-finite sample.
func (w *window) mean() float64 {
	if !w.full() || w.bad > 0 {
		return math.NaN()
	}
	return w.sum / float64(len(w.buf))
}

// allZero reports whether every sample in a full window is exactly zero.
// It is exact, unlike comparing the running sum against zero.
func (w *window) allZero() bool {
	return w.full() && w.bad == 0 && w.nonzero == 0
}

// ago returns the sample pushed k steps before the newest one (ago(0) is the newest).
func (w *window) ago(k int) (float64, bool) {
	if k < 0 || k >= len(w.buf) || k >= w.count {
		return 0, false
	}
	i := (w.idx - 1 - k + 2*len(w.buf)) % len(w.buf)
	return w.buf[i], true
}

// values returns the buffered samples oldest first.
func (w *window) values() []float64 {
	n := w.count
	if n > len(w.buf) {
		n = len(w.buf)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, _ := w.ago(n - 1 - i)
		out[i] = v
	}
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
