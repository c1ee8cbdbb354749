package lits

import (
	"errors"
	"fmt"
	"strings"
)

// PiecesPerColour is the size of each colour's share of the pool.
const PiecesPerColour = 5

// Placement errors returned (wrapped) by Validate and Place.
var (
	ErrNullMove     = errors.New("null move")
	ErrNoPiecesLeft = errors.New("no pieces of this colour left")
	ErrOutOfBounds  = errors.New("not on the board")
	ErrOverlap      = errors.New("overlaps an existing piece")
	ErrNoAttach     = errors.New("does not touch an existing piece")
	ErrSameColour   = errors.New("touches a piece of the same colour")
	ErrSquare       = errors.New("forms a 2x2 square")
)

// Board is a position: who owns each score tile, which colour covers each
// tile, and how many pieces of each colour remain. Indexing is [x][y].
type Board struct {
	score     [BoardSize][BoardSize]Player
	pieces    [BoardSize][BoardSize]Colour
	remaining [4]int
}

// NewBoard returns an empty board with a full piece pool and no score tiles.
func NewBoard() *Board {
	b := &Board{}
	for i := range b.remaining {
		b.remaining[i] = PiecesPerColour
	}
	return b
}

// Clone returns an independent copy of b.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// ColourAt returns the colour covering p, or NoColour.
func (b *Board) ColourAt(p Point) Colour {
	return b.pieces[p.X][p.Y]
}

// PlayerAt returns the owner of the score tile at p, or NoPlayer.
func (b *Board) PlayerAt(p Point) Player {
	return b.score[p.X][p.Y]
}

// SetPlayer assigns the score tile at p.
func (b *Board) SetPlayer(p Point, pl Player) {
	b.score[p.X][p.Y] = pl
}

// Remaining returns how many pieces of colour c are left in the pool.
func (b *Board) Remaining(c Colour) int {
	return b.remaining[c.Index()]
}

// IsEmpty reports whether no tile is covered.
func (b *Board) IsEmpty() bool {
	for x := range b.pieces {
		for y := range b.pieces[x] {
			if b.pieces[x][y] != NoColour {
				return false
			}
		}
	}
	return true
}

// IsAttach reports whether a piece covering p would connect to the pieces
// already on the board. On an empty board every tile attaches.
func (b *Board) IsAttach(p Point) bool {
	if !p.InBounds() || b.ColourAt(p) != NoColour {
		return false
	}
	if b.IsEmpty() {
		return true
	}
	for _, q := range p.Neighbours() {
		if b.ColourAt(q) != NoColour {
			return true
		}
	}
	return false
}

// Validate reports why t cannot be played, or nil if it can.
func (b *Board) Validate(t Tetromino) error {
	if t.IsNull() {
		return ErrNullMove
	}
	if b.Remaining(t.Colour) == 0 {
		return fmt.Errorf("%s: %w", t, ErrNoPiecesLeft)
	}
	for _, p := range t.Points {
		if !p.InBounds() {
			return fmt.Errorf("%s: %w", t, ErrOutOfBounds)
		}
	}
	for _, p := range t.Points {
		if b.ColourAt(p) != NoColour {
			return fmt.Errorf("%s: %w", t, ErrOverlap)
		}
	}

	attached := false
	for _, p := range t.Points {
		if b.IsAttach(p) {
			attached = true
			break
		}
	}
	if !attached {
		return fmt.Errorf("%s: %w", t, ErrNoAttach)
	}

	for _, p := range t.Points {
		for _, q := range p.Neighbours() {
			if b.ColourAt(q) == t.Colour {
				return fmt.Errorf("%s: %w", t, ErrSameColour)
			}
		}
	}

	if b.formsSquare(t) {
		return fmt.Errorf("%s: %w", t, ErrSquare)
	}
	return nil
}

// formsSquare reports whether placing t leaves a 2x2 block of covered
// tiles. Only blocks containing one of t's tiles can be new.
func (b *Board) formsSquare(t Tetromino) bool {
	covered := func(p Point) bool {
		if !p.InBounds() {
			return false
		}
		if b.ColourAt(p) != NoColour {
			return true
		}
		for _, q := range t.Points {
			if q == p {
				return true
			}
		}
		return false
	}

	for _, p := range t.Points {
		for dx := -1; dx <= 0; dx++ {
			for dy := -1; dy <= 0; dy++ {
				c := p.Add(Point{dx, dy})
				if covered(c) && covered(c.Add(Point{1, 0})) &&
					covered(c.Add(Point{0, 1})) && covered(c.Add(Point{1, 1})) {
					return true
				}
			}
		}
	}
	return false
}

// Place plays t, returning the Validate error if it is illegal.
func (b *Board) Place(t Tetromino) error {
	if err := b.Validate(t); err != nil {
		return err
	}
	for _, p := range t.Points {
		b.pieces[p.X][p.Y] = t.Colour
	}
	b.remaining[t.Colour.Index()]--
	return nil
}

// LegalMoves returns every playable tetromino in move-index order.
func (b *Board) LegalMoves() []Tetromino {
	var out []Tetromino
	for _, t := range moveTable().list[1:] {
		if b.Validate(t) == nil {
			out = append(out, t)
		}
	}
	return out
}

// HasMoves reports whether any tetromino can be played.
func (b *Board) HasMoves() bool {
	for _, t := range moveTable().list[1:] {
		if b.Validate(t) == nil {
			return true
		}
	}
	return false
}

// Score sums the uncovered score tiles from X's perspective.
func (b *Board) Score() int {
	sum := 0
	for x := range b.score {
		for y := range b.score[x] {
			if b.pieces[x][y] == NoColour {
				sum += b.score[x][y].Value()
			}
		}
	}
	return sum
}

// Outcome is the state of a game.
type Outcome int

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "X wins"
	case OWins:
		return "O wins"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// Result decides the game once no moves remain.
func (b *Board) Result() Outcome {
	if b.HasMoves() {
		return InProgress
	}
	switch s := b.Score(); {
	case s > 0:
		return XWins
	case s < 0:
		return OWins
	default:
		return Draw
	}
}

// notationLen is 100 (player, colour) pairs, a comma, and four counts.
const notationLen = 2*BoardSize*BoardSize + 1 + 4

// Notate encodes the board as 100 (player, colour) character pairs in
// [x][y] order, a comma, and the remaining L, I, T, S counts.
func (b *Board) Notate() string {
	var sb strings.Builder
	sb.Grow(notationLen)
	for x := range b.score {
		for y := range b.score[x] {
			sb.WriteString(b.score[x][y].String())
			sb.WriteString(b.pieces[x][y].String())
		}
	}
	sb.WriteByte(',')
	for _, n := range b.remaining {
		sb.WriteByte(byte('0' + n))
	}
	return sb.String()
}

// ParseBoard is the inverse of Notate.
func ParseBoard(s string) (*Board, error) {
	if len(s) != notationLen {
		return nil, fmt.Errorf("invalid board notation: length %d, want %d", len(s), notationLen)
	}

	b := &Board{}
	for i := 0; i < BoardSize*BoardSize; i++ {
		x, y := i/BoardSize, i%BoardSize
		pl, err := ParsePlayer(s[2*i : 2*i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid board notation at tile %d%d: %w", x, y, err)
		}
		c, err := ParseColour(s[2*i+1 : 2*i+2])
		if err != nil {
			return nil, fmt.Errorf("invalid board notation at tile %d%d: %w", x, y, err)
		}
		b.score[x][y] = pl
		b.pieces[x][y] = c
	}

	if s[200] != ',' {
		return nil, fmt.Errorf("invalid board notation: expected ',' before piece counts")
	}
	for i, c := range Colours {
		d := s[201+i]
		if d < '0' || d > '0'+PiecesPerColour {
			return nil, fmt.Errorf("invalid board notation: %q pieces remaining for %s", d, c)
		}
		b.remaining[i] = int(d - '0')
	}
	return b, nil
}

// String draws the board with y increasing upward. Covered tiles show
// their colour, uncovered tiles their owner.
func (b *Board) String() string {
	var sb strings.Builder
	for y := BoardSize - 1; y >= 0; y-- {
		for x := 0; x < BoardSize; x++ {
			if c := b.pieces[x][y]; c != NoColour {
				sb.WriteString(c.String())
			} else {
				sb.WriteString(b.score[x][y].String())
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "L:%d I:%d T:%d S:%d\n", b.remaining[0], b.remaining[1], b.remaining[2], b.remaining[3])
	return sb.String()
}
