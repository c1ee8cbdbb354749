package lits

import (
	"fmt"
	"slices"
	"sync"
)

// MoveRange is the number of move indices: the null move plus every
// placement of every piece on an empty board.
const MoveRange = 1293

type moves struct {
	list  []Tetromino
	index map[Tetromino]int
}

// moveTable numbers placements by colour (L, I, T, S), then by sorted
// point list.
var moveTable = sync.OnceValue(func() *moves {
	m := &moves{
		list:  make([]Tetromino, 1, MoveRange),
		index: make(map[Tetromino]int, MoveRange),
	}
	m.list[0] = Null

	for _, c := range Colours {
		var placements []Tetromino
		for _, shape := range orientations(c) {
			for ax := 0; ax < BoardSize; ax++ {
				for ay := 0; ay < BoardSize; ay++ {
					t := Tetromino{Colour: c}
					inBounds := true
					for i, p := range shape {
						t.Points[i] = p.Add(Point{ax, ay})
						inBounds = inBounds && t.Points[i].InBounds()
					}
					if inBounds {
						placements = append(placements, t)
					}
				}
			}
		}
		slices.SortFunc(placements, func(a, b Tetromino) int {
			return compareShapes(a.Points, b.Points)
		})
		m.list = append(m.list, placements...)
	}

	if len(m.list) != MoveRange {
		panic(fmt.Sprintf("lits: built %d moves, want %d", len(m.list), MoveRange))
	}
	for i, t := range m.list[1:] {
		m.index[t] = i + 1
	}
	return m
})

// TetrominoAt returns the tetromino with move index i.
func TetrominoAt(i int) (Tetromino, error) {
	if i < 0 || i >= MoveRange {
		return Null, fmt.Errorf("move index %d out of range [0, %d)", i, MoveRange)
	}
	return moveTable().list[i], nil
}
