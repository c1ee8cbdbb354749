package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"k8s.io/klog/v2"

	"github.com/born-ml/litsnet/internal/backend/cpu"
	"github.com/born-ml/litsnet/internal/config"
	"github.com/born-ml/litsnet/internal/lits"
	"github.com/born-ml/litsnet/internal/litsnet"
	"github.com/born-ml/litsnet/internal/parallel"
	"github.com/born-ml/litsnet/internal/tensor"
)

func runPredict(ctx context.Context, args []string) error {
	log := klog.FromContext(ctx)

	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	model := fs.String("model", "", "artifact path or location (default from config: best or template)")
	board := fs.String("board", lits.NewBoard().Notate(), "board notation")
	toMove := fs.String("to-move", "X", "player to move: X or O")
	top := fs.Int("top", 5, "number of moves to list")
	temperature := fs.Float64("temperature", 0, "sampling temperature for the chosen move, 0 for greedy")
	seed := fs.Int64("seed", -1, "sampling seed, -1 for random")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	loc := *model
	if loc == "" {
		loc = cfg.ModelPath()
	}
	b, err := lits.ParseBoard(*board)
	if err != nil {
		return err
	}
	player, err := lits.ParsePlayer(*toMove)
	if err != nil {
		return err
	}
	if player == lits.NoPlayer {
		return fmt.Errorf("-to-move must be X or O")
	}

	path, cleanup, err := fetch(ctx, loc)
	if err != nil {
		return err
	}
	defer cleanup()

	backend := cpu.NewWithConfig(parallel.WithWorkers(cfg.Parallel.Workers))
	net, err := loadEvaluator(path, backend)
	if err != nil {
		return err
	}
	log.V(1).Info("Loaded network", "path", path)

	p := litsnet.NewPredictor(net, backend)
	pred, err := p.Predict(b, player)
	if err != nil {
		return err
	}
	move, err := p.Sample(b, player, litsnet.SamplerConfig{Temperature: *temperature, Seed: *seed})
	if err != nil {
		return err
	}

	fmt.Println(b)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "to move\t%s\n", player)
	fmt.Fprintf(w, "value\t%.6f\n", pred.Value)
	fmt.Fprintf(w, "legal\t%d\n", len(pred.Legal))
	fmt.Fprintf(w, "move\t%s\n\n", move)
	fmt.Fprintf(w, "rank\tmove\tindex\tscore\n")
	for i, ms := range pred.Top(*top) {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.6f\n", i+1, ms.Move, ms.Index, ms.Score)
	}
	return w.Flush()
}

func loadEvaluator(path string, backend tensor.Backend) (litsnet.Evaluator, error) {
	format, err := litsnet.FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == litsnet.FormatONNX {
		m, err := litsnet.LoadONNX(path, backend)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	net, _, err := litsnet.Load(path, backend)
	if err != nil {
		return nil, err
	}
	return net, nil
}
