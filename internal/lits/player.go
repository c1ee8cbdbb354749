package lits

import "fmt"

// Player owns score tiles. X counts positive, O negative.
type Player int8

const (
	NoPlayer Player = 0
	X        Player = 1
	O        Player = -1
)

// Value is the player's sign from X's perspective: +1, -1, or 0.
func (p Player) Value() int {
	return int(p)
}

// Next returns the opponent. It panics on NoPlayer.
func (p Player) Next() Player {
	switch p {
	case X:
		return O
	case O:
		return X
	default:
		panic("lits: next of NoPlayer")
	}
}

func (p Player) String() string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "_"
	}
}

// ParsePlayer accepts "X", "O" (either case) or one of "_-.," for NoPlayer.
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "X", "x":
		return X, nil
	case "O", "o":
		return O, nil
	case "_", "-", ".", ",":
		return NoPlayer, nil
	default:
		return NoPlayer, fmt.Errorf("invalid player %q", s)
	}
}
