package lits

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Tetromino is a piece placed on the board. Points are absolute and kept
// sorted, so two placements covering the same tiles compare equal.
// The zero value is the null move.
type Tetromino struct {
	Colour Colour
	Points [4]Point
}

// Null is the null move, index 0.
var Null = Tetromino{}

// Reference shapes before rotation and reflection.
var referenceShapes = map[Colour][4]Point{
	L: {{0, 0}, {0, 1}, {0, 2}, {1, 2}},
	I: {{0, 0}, {0, 1}, {0, 2}, {0, 3}},
	T: {{0, 0}, {1, 1}, {1, 0}, {2, 0}},
	S: {{0, 1}, {1, 1}, {1, 0}, {2, 0}},
}

// The eight symmetries of the square: four rotations, each optionally
// preceded by a reflection.
var transforms = [8]func(Point) Point{
	func(p Point) Point { return Point{p.X, p.Y} },
	func(p Point) Point { return Point{p.Y, -p.X} },
	func(p Point) Point { return Point{-p.X, -p.Y} },
	func(p Point) Point { return Point{-p.Y, p.X} },
	func(p Point) Point { return Point{-p.X, p.Y} },
	func(p Point) Point { return Point{p.Y, p.X} },
	func(p Point) Point { return Point{p.X, -p.Y} },
	func(p Point) Point { return Point{-p.Y, -p.X} },
}

func comparePoints(a, b Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func compareShapes(a, b [4]Point) int {
	for i := range a {
		if c := comparePoints(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// normalize translates pts so the bounding box starts at the origin and
// sorts them.
func normalize(pts [4]Point) [4]Point {
	minX, minY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
	}
	for i := range pts {
		pts[i] = Point{pts[i].X - minX, pts[i].Y - minY}
	}
	slices.SortFunc(pts[:], comparePoints)
	return pts
}

// orientations returns the distinct normalized shapes of colour c in a
// fixed order.
func orientations(c Colour) [][4]Point {
	ref := referenceShapes[c]
	var out [][4]Point
	for _, tf := range transforms {
		var pts [4]Point
		for i, p := range ref {
			pts[i] = tf(p)
		}
		pts = normalize(pts)
		if !slices.Contains(out, pts) {
			out = append(out, pts)
		}
	}
	slices.SortFunc(out, compareShapes)
	return out
}

// NewTetromino builds a placement from absolute points in any order. The
// points must form one orientation of the colour's shape.
func NewTetromino(c Colour, points [4]Point) (Tetromino, error) {
	if c == NoColour {
		return Null, fmt.Errorf("tetromino cannot use the null colour")
	}
	if !slices.Contains(orientations(c), normalize(points)) {
		return Null, fmt.Errorf("points %v do not form a %s piece", points[:], c)
	}
	slices.SortFunc(points[:], comparePoints)
	return Tetromino{Colour: c, Points: points}, nil
}

// IsNull reports whether t is the null move.
func (t Tetromino) IsNull() bool {
	return t.Colour == NoColour
}

// String returns notation such as "L[00,01,02,12]", or "-" for the null move.
func (t Tetromino) String() string {
	if t.IsNull() {
		return "-"
	}
	var sb strings.Builder
	sb.WriteString(t.Colour.String())
	sb.WriteByte('[')
	for i, p := range t.Points {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseTetromino parses notation such as "T[11,20,21,31]". The points may
// be listed in any order.
func ParseTetromino(s string) (Tetromino, error) {
	// Colour letter, '[', four "XY" pairs separated by ',', ']'.
	if len(s) != 14 || s[1] != '[' || s[13] != ']' {
		return Null, fmt.Errorf("invalid tetromino %q", s)
	}
	colour, err := ParseColour(s[:1])
	if err != nil || colour == NoColour || strings.ToUpper(s[:1]) != colour.String() {
		return Null, fmt.Errorf("invalid tetromino %q: bad colour", s)
	}

	fields := strings.Split(s[2:13], ",")
	if len(fields) != 4 {
		return Null, fmt.Errorf("invalid tetromino %q", s)
	}
	var pts [4]Point
	for i, f := range fields {
		if pts[i], err = ParsePoint(f); err != nil {
			return Null, fmt.Errorf("invalid tetromino %q: %w", s, err)
		}
	}

	t, err := NewTetromino(colour, pts)
	if err != nil {
		return Null, fmt.Errorf("invalid tetromino %q: %w", s, err)
	}
	return t, nil
}

// Index returns the move index of t: 0 for the null move, 1..MoveRange-1
// for placements.
func (t Tetromino) Index() int {
	if t.IsNull() {
		return 0
	}
	i, ok := moveTable().index[t]
	if !ok {
		panic(fmt.Sprintf("lits: %s is not a board placement", t))
	}
	return i
}
