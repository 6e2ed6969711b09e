package core

// Direction indexes the four von Neumann neighbors of a site.
type Direction uint8

const (
	Up Direction = iota
	Left
	Down
	Right
)

// Directions lists every direction in topology order.
var Directions = [4]Direction{Up, Left, Down, Right}

// Opposite returns the direction pointing back at the origin site.
func (d Direction) Opposite() Direction { return (d + 2) % 4 }

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Left:
		return "left"
	case Down:
		return "down"
	case Right:
		return "right"
	default:
		return "invalid"
	}
}

// Torus describes a W x H grid with wraparound on both axes, stored in
// row-major order.
type Torus struct {
	W, H int
}

// NewTorus returns a torus with the given dimensions, clamped to at least 1x1.
func NewTorus(w, h int) Torus {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return Torus{W: w, H: h}
}

// Len reports the number of sites.
func (t Torus) Len() int { return t.W * t.H }

// Index returns the linear index for row and column.
func (t Torus) Index(row, col int) int { return row*t.W + col }

// Coords is the inverse of Index.
func (t Torus) Coords(idx int) (row, col int) { return idx / t.W, idx % t.W }

// Wrap applies toroidal wrapping to the provided coordinates.
func (t Torus) Wrap(row, col int) (int, int) {
	row = (row%t.H + t.H) % t.H
	col = (col%t.W + t.W) % t.W
	return row, col
}

// Neighbor returns the index of the site adjacent to idx in direction d.
func (t Torus) Neighbor(idx int, d Direction) int {
	row, col := t.Coords(idx)
	switch d {
	case Up:
		row--
	case Left:
		col--
	case Down:
		row++
	case Right:
		col++
	}
	return t.Index(t.Wrap(row, col))
}

// VonNeumann precomputes the four neighbors of every site. The result is
// indexed [direction][site].
func (t Torus) VonNeumann() [4][]int {
	var nb [4][]int
	n := t.Len()
	for _, d := range Directions {
		nb[d] = make([]int, n)
		for i := 0; i < n; i++ {
			nb[d][i] = t.Neighbor(i, d)
		}
	}
	return nb
}
