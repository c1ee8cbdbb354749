package lits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Tetromino {
	t.Helper()
	tet, err := ParseTetromino(s)
	require.NoError(t, err)
	return tet
}

func TestColourAndPlayer(t *testing.T) {
	for i, c := range Colours {
		assert.Equal(t, i, c.Index())
		parsed, err := ParseColour(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Panics(t, func() { NoColour.Index() })

	c, err := ParseColour("g")
	require.NoError(t, err)
	assert.Equal(t, T, c)
	_, err = ParseColour("Q")
	assert.Error(t, err)

	assert.Equal(t, 1, X.Value())
	assert.Equal(t, -1, O.Value())
	assert.Equal(t, 0, NoPlayer.Value())
	assert.Equal(t, O, X.Next())
	assert.Equal(t, X, O.Next())
	assert.Panics(t, func() { NoPlayer.Next() })
}

func TestPoint(t *testing.T) {
	p, err := ParsePoint("37")
	require.NoError(t, err)
	assert.Equal(t, Point{3, 7}, p)
	assert.Equal(t, "37", p.String())

	for _, bad := range []string{"", "1", "123", "+1", "a1"} {
		_, err := ParsePoint(bad)
		assert.Error(t, err, bad)
	}

	assert.Len(t, Point{0, 0}.Neighbours(), 2)
	assert.Len(t, Point{0, 5}.Neighbours(), 3)
	assert.Len(t, Point{4, 5}.Neighbours(), 4)
	assert.False(t, Point{10, 0}.InBounds())
	assert.False(t, Point{0, -1}.InBounds())
}

func TestOrientationCounts(t *testing.T) {
	want := map[Colour]int{L: 8, I: 2, T: 4, S: 4}
	for c, n := range want {
		assert.Len(t, orientations(c), n, c.String())
	}
}

func TestMoveTable(t *testing.T) {
	counts := map[Colour]int{}
	for i := 0; i < MoveRange; i++ {
		tet, err := TetrominoAt(i)
		require.NoError(t, err)
		assert.Equal(t, i, tet.Index())
		counts[tet.Colour]++
	}
	assert.Equal(t, map[Colour]int{NoColour: 1, L: 576, I: 140, T: 288, S: 288}, counts)

	_, err := TetrominoAt(MoveRange)
	assert.Error(t, err)
	_, err = TetrominoAt(-1)
	assert.Error(t, err)
}

func TestMoveOrdering(t *testing.T) {
	null, err := TetrominoAt(0)
	require.NoError(t, err)
	assert.True(t, null.IsNull())
	assert.Equal(t, 0, Null.Index())

	first, err := TetrominoAt(1)
	require.NoError(t, err)
	assert.Equal(t, "L[00,01,02,10]", first.String())

	lastL, err := TetrominoAt(576)
	require.NoError(t, err)
	assert.Equal(t, L, lastL.Colour)
	firstI, err := TetrominoAt(577)
	require.NoError(t, err)
	assert.Equal(t, "I[00,01,02,03]", firstI.String())

	last, err := TetrominoAt(MoveRange - 1)
	require.NoError(t, err)
	assert.Equal(t, "S[88,89,97,98]", last.String())
}

func TestParseTetromino(t *testing.T) {
	tet := mustParse(t, "L[12,02,01,00]")
	assert.Equal(t, "L[00,01,02,12]", tet.String())
	assert.Equal(t, tet, mustParse(t, tet.String()))

	for _, bad := range []string{
		"L[00,01,02,03]", // an I
		"-[00,01,02,03]",
		"X[00,01,02,03]",
		"L[00,01,02]",
		"L(00,01,02,12)",
		"L[00,01,02,1a]",
	} {
		_, err := ParseTetromino(bad)
		assert.Error(t, err, bad)
	}
}

func TestTetrominoNotationRoundTrip(t *testing.T) {
	for i := 1; i < MoveRange; i++ {
		tet, err := TetrominoAt(i)
		require.NoError(t, err)
		s := tet.String()
		require.Len(t, s, 14)
		parsed, err := ParseTetromino(s)
		if err != nil {
			t.Fatalf("move %d: ParseTetromino(%q): %v", i, s, err)
		}
		if parsed != tet {
			t.Errorf("move %d: round trip gave %v, want %v", i, parsed, tet)
		}
	}

	_, err := ParseTetromino("L[00,01,02,12]]")
	assert.Error(t, err)
}

func TestEmptyBoardLegalMoves(t *testing.T) {
	b := NewBoard()
	assert.True(t, b.IsEmpty())
	assert.Len(t, b.LegalMoves(), MoveRange-1)
	assert.Equal(t, InProgress, b.Result())
	assert.ErrorIs(t, b.Validate(Null), ErrNullMove)
}

func TestPlacementRules(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.Place(mustParse(t, "L[00,01,02,12]")))
	assert.Equal(t, L, b.ColourAt(Point{1, 2}))
	assert.Equal(t, 4, b.Remaining(L))
	assert.False(t, b.IsAttach(Point{0, 0}))
	assert.True(t, b.IsAttach(Point{1, 0}))
	assert.False(t, b.IsAttach(Point{5, 5}))

	tests := []struct {
		name string
		move string
		want error
	}{
		{"overlap", "I[02,03,04,05]", ErrOverlap},
		{"detached", "I[50,51,52,53]", ErrNoAttach},
		{"same colour", "L[10,20,30,31]", ErrSameColour},
		{"square", "T[11,20,21,22]", ErrSquare},
		{"legal", "I[10,20,30,40]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Validate(mustParse(t, tt.move))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Validate does not change the board.
	assert.Equal(t, 4, b.Remaining(L))
	assert.Equal(t, NoColour, b.ColourAt(Point{1, 0}))
}

func TestPlacementOutOfBounds(t *testing.T) {
	b := NewBoard()
	off := Tetromino{Colour: I, Points: [4]Point{{9, 7}, {9, 8}, {9, 9}, {9, 10}}}
	assert.ErrorIs(t, b.Validate(off), ErrOutOfBounds)
}

func TestNoPiecesLeft(t *testing.T) {
	b := NewBoard()
	b.remaining[I.Index()] = 0
	assert.ErrorIs(t, b.Validate(mustParse(t, "I[00,01,02,03]")), ErrNoPiecesLeft)
	for _, m := range b.LegalMoves() {
		assert.NotEqual(t, I, m.Colour)
	}
}

func TestLegalMovesAfterPlacement(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.Place(mustParse(t, "I[40,41,42,43]")))

	moves := b.LegalMoves()
	require.NotEmpty(t, moves)
	prev := 0
	for _, m := range moves {
		assert.NotEqual(t, I, m.Colour, "I pieces cannot touch the placed I")
		assert.NoError(t, b.Validate(m))
		assert.Greater(t, m.Index(), prev, "moves must be in index order")
		prev = m.Index()
	}
}

func TestScore(t *testing.T) {
	b := NewBoard()
	b.SetPlayer(Point{0, 0}, X)
	b.SetPlayer(Point{5, 5}, X)
	b.SetPlayer(Point{9, 9}, O)
	assert.Equal(t, 1, b.Score())

	require.NoError(t, b.Place(mustParse(t, "L[00,01,02,12]")))
	assert.Equal(t, 0, b.Score())
	assert.Equal(t, X, b.PlayerAt(Point{0, 0}), "covering a tile keeps its owner")
}

func TestBoardNotation(t *testing.T) {
	b := NewBoard()
	b.SetPlayer(Point{3, 4}, X)
	b.SetPlayer(Point{0, 0}, O)
	require.NoError(t, b.Place(mustParse(t, "S[00,10,11,21]")))

	s := b.Notate()
	assert.Len(t, s, 205)
	assert.True(t, strings.HasPrefix(s, "OS_-"))
	assert.True(t, strings.HasSuffix(s, ",5554"))

	parsed, err := ParseBoard(s)
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
	assert.Equal(t, s, parsed.Notate())

	clone := b.Clone()
	clone.SetPlayer(Point{9, 9}, X)
	assert.Equal(t, NoPlayer, b.PlayerAt(Point{9, 9}))
}

func TestParseBoardErrors(t *testing.T) {
	blank := NewBoard().Notate()
	assert.Equal(t, strings.Repeat("_-", 100)+",5555", blank)

	tests := map[string]string{
		"short":     blank[:204],
		"no comma":  blank[:200] + ";5555",
		"too many":  blank[:201] + "6555",
		"bad tile":  "Q" + blank[1:],
		"bad piece": "_Z" + blank[2:],
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBoard(s)
			assert.Error(t, err)
		})
	}
}

func TestResultWhenPoolEmpty(t *testing.T) {
	b := NewBoard()
	b.SetPlayer(Point{2, 2}, O)
	b.remaining = [4]int{}
	assert.False(t, b.HasMoves())
	assert.Equal(t, OWins, b.Result())

	b.SetPlayer(Point{7, 7}, X)
	assert.Equal(t, Draw, b.Result())
}

func TestBoardString(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.Place(mustParse(t, "I[00,01,02,03]")))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, BoardSize+1)
	assert.Equal(t, "I_________", lines[BoardSize-1])
	assert.Equal(t, "L:5 I:4 T:5 S:5", lines[BoardSize])
}
