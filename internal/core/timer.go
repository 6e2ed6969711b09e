package core

// FrameClock decides when a continuous-time simulation has crossed the next
// snapshot boundary. Boundaries sit at origin+gap, origin+2*gap, ...
type FrameClock struct {
	gap  float64
	next float64
}

// NewFrameClock returns a clock whose first boundary is origin+gap.
func NewFrameClock(origin, gap float64) *FrameClock {
	if gap <= 0 {
		gap = 1
	}
	return &FrameClock{gap: gap, next: origin + gap}
}

// Due reports whether t has passed the pending boundary and, if so, moves the
// boundary forward by one gap. After a jump across several boundaries it keeps
// firing on subsequent calls until it has caught up.
func (f *FrameClock) Due(t float64) bool {
	if f.next < t {
		f.next += f.gap
		return true
	}
	return false
}

// Next returns the pending boundary.
func (f *FrameClock) Next() float64 { return f.next }

// Gap returns the spacing between boundaries.
func (f *FrameClock) Gap() float64 { return f.gap }
