package lits

import "fmt"

// BoardSize is the side length of the board.
const BoardSize = 10

// Point is a tile position.
type Point struct {
	X, Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// InBounds reports whether p lies on the board.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// Neighbours returns the orthogonal neighbours of p that lie on the board.
func (p Point) Neighbours() []Point {
	all := [4]Point{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}}
	out := make([]Point, 0, 4)
	for _, q := range all {
		if q.InBounds() {
			out = append(out, q)
		}
	}
	return out
}

// String returns the two-digit notation "XY".
func (p Point) String() string {
	return fmt.Sprintf("%d%d", p.X, p.Y)
}

// ParsePoint parses two-digit notation.
func ParsePoint(s string) (Point, error) {
	if len(s) != 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return Point{}, fmt.Errorf("invalid point %q: expected 2 digits", s)
	}
	return Point{int(s[0] - '0'), int(s[1] - '0')}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
