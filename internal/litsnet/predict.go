package litsnet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/born-ml/litsnet/internal/lits"
	"github.com/born-ml/litsnet/internal/tensor"
)

// ErrNoLegalMoves is returned when the position has no playable tetromino.
var ErrNoLegalMoves = errors.New("litsnet: no legal moves")

// Evaluator is a network that maps encoded boards to policy and value.
// Both *LITSNet and *ONNXModel implement it.
type Evaluator interface {
	Evaluate(input *Tensor) (Output, error)
}

// Predictor turns network outputs into moves for a position.
type Predictor struct {
	Model   Evaluator
	Backend tensor.Backend
}

// NewPredictor creates a Predictor.
func NewPredictor(model Evaluator, backend tensor.Backend) *Predictor {
	return &Predictor{Model: model, Backend: backend}
}

// MoveScore is a legal move with its policy score.
type MoveScore struct {
	Move  lits.Tetromino
	Index int
	Score float32
}

// Prediction is the network's view of one position.
type Prediction struct {
	// Policy has one entry per move index; illegal moves are 0.
	Policy []float32
	// Value is the position estimate from the network's value head.
	Value float32
	// Legal lists the legal move indices in ascending order.
	Legal []int
}

// Top returns the n best legal moves, highest score first. Equal scores keep
// move-index order.
func (p *Prediction) Top(n int) []MoveScore {
	scores := make([]MoveScore, len(p.Legal))
	for i, idx := range p.Legal {
		move, _ := lits.TetrominoAt(idx) // legal indices are always valid
		scores[i] = MoveScore{Move: move, Index: idx, Score: p.Policy[idx]}
	}
	slices.SortStableFunc(scores, func(a, b MoveScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if n >= 0 && n < len(scores) {
		scores = scores[:n]
	}
	return scores
}

// Best returns the highest scoring legal move. Ties resolve to the lowest
// move index, so an all-zero policy yields the first legal move.
func (p *Prediction) Best() (lits.Tetromino, error) {
	if len(p.Legal) == 0 {
		return lits.Null, ErrNoLegalMoves
	}
	best := p.Legal[0]
	for _, idx := range p.Legal[1:] {
		if p.Policy[idx] > p.Policy[best] {
			best = idx
		}
	}
	return lits.TetrominoAt(best)
}

// Predict evaluates b from the perspective of toMove.
func (p *Predictor) Predict(b *lits.Board, toMove lits.Player) (*Prediction, error) {
	legal := b.LegalMoves()
	if len(legal) == 0 {
		return nil, ErrNoLegalMoves
	}

	input, err := tensor.FromSlice(EncodeBoard(b, toMove), ExampleShape, p.Backend)
	if err != nil {
		return nil, err
	}
	out, err := p.Model.Evaluate(input)
	if err != nil {
		return nil, err
	}
	raw := out.Policy.Data()
	if len(raw) != PolicySize {
		return nil, fmt.Errorf("litsnet: policy has %d entries, want %d", len(raw), PolicySize)
	}

	pred := &Prediction{
		Policy: make([]float32, PolicySize),
		Value:  out.Value.Data()[0],
		Legal:  make([]int, len(legal)),
	}
	for i, t := range legal {
		idx := t.Index()
		pred.Legal[i] = idx
		pred.Policy[idx] = raw[idx]
	}
	return pred, nil
}

// Best returns the strongest legal move in b.
func (p *Predictor) Best(b *lits.Board, toMove lits.Player) (lits.Tetromino, error) {
	pred, err := p.Predict(b, toMove)
	if err != nil {
		return lits.Null, err
	}
	return pred.Best()
}

// SamplerConfig controls Sample.
type SamplerConfig struct {
	// Temperature flattens (>1) or sharpens (<1) the policy. 0 = greedy.
	Temperature float64

	// Seed for reproducibility. -1 = random.
	Seed int64
}

// Sample draws a legal move with probability proportional to
// score^(1/Temperature). If every legal score is zero the draw is uniform.
func (p *Predictor) Sample(b *lits.Board, toMove lits.Player, cfg SamplerConfig) (lits.Tetromino, error) {
	if cfg.Temperature < 0 {
		return lits.Null, fmt.Errorf("litsnet: negative temperature %v", cfg.Temperature)
	}
	pred, err := p.Predict(b, toMove)
	if err != nil {
		return lits.Null, err
	}
	if cfg.Temperature == 0 {
		return pred.Best()
	}

	var rng *rand.Rand
	if cfg.Seed >= 0 {
		rng = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Intentional deterministic seed for reproducibility
	} else {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // User requested random seed
	}
	return lits.TetrominoAt(pred.sample(cfg.Temperature, rng))
}

func (p *Prediction) sample(temperature float64, rng *rand.Rand) int {
	weights := make([]float64, len(p.Legal))
	total := 0.0
	for i, idx := range p.Legal {
		if s := float64(p.Policy[idx]); s > 0 {
			weights[i] = math.Pow(s, 1/temperature)
			total += weights[i]
		}
	}
	if total == 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return p.Legal[rng.Intn(len(p.Legal))]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return p.Legal[i]
		}
	}
	// Rounding can leave r just above zero; fall back to the last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return p.Legal[i]
		}
	}
	return p.Legal[len(p.Legal)-1]
}
