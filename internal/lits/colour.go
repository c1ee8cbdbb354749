package lits

import "fmt"

// Colour is a piece type. The shared pool holds five of each.
type Colour uint8

const (
	NoColour Colour = iota
	L
	I
	T
	S
)

// Colours lists the piece colours in LITS order.
var Colours = [4]Colour{L, I, T, S}

// Index returns 0..3 for L, I, T, S. It panics on NoColour.
func (c Colour) Index() int {
	if c < L || c > S {
		panic(fmt.Sprintf("lits: no index for colour %d", c))
	}
	return int(c) - 1
}

// String returns the one-letter notation, "-" for NoColour.
func (c Colour) String() string {
	switch c {
	case L:
		return "L"
	case I:
		return "I"
	case T:
		return "T"
	case S:
		return "S"
	default:
		return "-"
	}
}

// ParseColour accepts the letter of a piece (either case), its board
// colour initial (R, Y, G, B), or one of "_-.," for NoColour.
func ParseColour(s string) (Colour, error) {
	switch s {
	case "L", "l", "R", "r":
		return L, nil
	case "I", "i", "Y", "y":
		return I, nil
	case "T", "t", "G", "g":
		return T, nil
	case "S", "s", "B", "b":
		return S, nil
	case "_", "-", ".", ",":
		return NoColour, nil
	default:
		return NoColour, fmt.Errorf("invalid colour %q", s)
	}
}
