package ui

// Fractions returns the share of cells holding each value below n. Values at
// or above n are ignored.
func Fractions(cells []uint8, n int) []float64 {
	out := make([]float64, n)
	if len(cells) == 0 || n <= 0 {
		return out
	}
	for _, c := range cells {
		if int(c) < n {
			out[c]++
		}
	}
	inv := 1 / float64(len(cells))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// History keeps the most recent population samples in a ring buffer.
type History struct {
	samples [][]float64
	next    int
	full    bool
}

// NewHistory allocates room for capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{samples: make([][]float64, capacity)}
}

// Add records a sample, evicting the oldest once the buffer is full.
func (h *History) Add(sample []float64) {
	h.samples[h.next] = sample
	h.next++
	if h.next == len(h.samples) {
		h.next = 0
		h.full = true
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	if h.full {
		return len(h.samples)
	}
	return h.next
}

// At returns the i-th stored sample, oldest first.
func (h *History) At(i int) []float64 {
	if h.full {
		i = (h.next + i) % len(h.samples)
	}
	return h.samples[i]
}

// Clear drops every sample.
func (h *History) Clear() {
	for i := range h.samples {
		h.samples[i] = nil
	}
	h.next = 0
	h.full = false
}
