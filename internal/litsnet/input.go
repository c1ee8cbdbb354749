package litsnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/born-ml/litsnet/internal/lits"
	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
)

// InputSize is the number of values in one encoded board.
const InputSize = Channels * BoardSize * BoardSize

// EncodeBoard encodes b from the perspective of toMove as a [5][10][10]
// array indexed [plane][x][y].
//
// Planes 0-3 one-hot encode the covering colour in L, I, T, S order. Plane 4
// holds the score tiles of uncovered cells: +1 for toMove, -1 for the
// opponent.
func EncodeBoard(b *lits.Board, toMove lits.Player) []float32 {
	out := make([]float32, InputSize)
	encodeInto(out, b, toMove)
	return out
}

func encodeInto(dst []float32, b *lits.Board, toMove lits.Player) {
	const plane = BoardSize * BoardSize
	for x := range BoardSize {
		for y := range BoardSize {
			p := lits.Point{X: x, Y: y}
			cell := x*BoardSize + y
			if c := b.ColourAt(p); c != lits.NoColour {
				dst[c.Index()*plane+cell] = 1
				continue
			}
			dst[4*plane+cell] = float32(b.PlayerAt(p).Value() * toMove.Value())
		}
	}
}

// EncodeBatch encodes boards into a [len(boards), 5, 10, 10] tensor.
func EncodeBatch(ctx context.Context, boards []*lits.Board, toMove lits.Player, backend tensor.Backend) (*Tensor, error) {
	if len(boards) == 0 {
		return nil, errors.New("litsnet: empty batch")
	}
	t := tensor.Zeros[float32](tensor.Shape{len(boards), Channels, BoardSize, BoardSize}, backend)
	data := t.Data()

	err := parallel.ForEach(ctx, len(boards), func(_ context.Context, i int) error {
		if boards[i] == nil {
			return fmt.Errorf("litsnet: board %d is nil", i)
		}
		encodeInto(data[i*InputSize:(i+1)*InputSize], boards[i], toMove)
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return t, nil
}
