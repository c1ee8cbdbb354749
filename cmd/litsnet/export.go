package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/born-ml/litsnet/internal/backend/cpu"
	"github.com/born-ml/litsnet/internal/blobs"
	"github.com/born-ml/litsnet/internal/config"
	"github.com/born-ml/litsnet/internal/litsnet"
	"github.com/born-ml/litsnet/internal/parallel"
)

// reproducibleTime is the created_at of reproducible exports.
var reproducibleTime = time.Unix(0, 0).UTC()

func runExport(ctx context.Context, args []string) error {
	log := klog.FromContext(ctx)

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	out := fs.String("out", "", "artifact path (default <neural.path>/<neural.template>)")
	seed := fs.Int64("seed", 0, "initialization seed, -1 for random (default from config)")
	format := fs.String("format", "", "artifact format: born or onnx (default from config)")
	reproducible := fs.Bool("reproducible", false, "write a fixed created_at for byte-identical output")
	upload := fs.String("upload", "", "store prefix to upload to, e.g. gs://bucket/models")
	workers := fs.Int("workers", -1, "worker goroutines, 0 for one per physical core (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Export.Seed = *seed
		case "format":
			cfg.Export.Format = *format
		case "reproducible":
			cfg.Export.Reproducible = *reproducible
		case "upload":
			cfg.Export.Upload = *upload
		case "workers":
			cfg.Parallel.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	artifactFormat, err := litsnet.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = cfg.TemplatePath()
		if artifactFormat == litsnet.FormatONNX {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".onnx"
		}
	}

	backend := cpu.NewWithConfig(parallel.WithWorkers(cfg.Parallel.Workers))
	var opts []litsnet.Option
	if cfg.Export.Seed >= 0 {
		opts = append(opts, litsnet.WithSeed(cfg.Export.Seed))
	}
	log.V(1).Info("Initializing network", "seed", cfg.Export.Seed, "workers", backend.Workers())
	net := litsnet.New(backend, opts...)

	exportOpts := litsnet.ExportOptions{Format: artifactFormat}
	if cfg.Export.Reproducible {
		exportOpts.CreatedAt = reproducibleTime
	}
	art, err := litsnet.Export(ctx, net, path, exportOpts)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s (%s, %d bytes, %d parameters)\nsha256 %s\n",
		art.Path, art.Format, art.Size, net.NumParameters(), art.SHA256)

	if cfg.Export.Upload != "" {
		loc, err := blobs.Publish(ctx, art.Path, cfg.Export.Upload)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", art.Path, err)
		}
		fmt.Printf("uploaded %s\n", loc)
	}
	return nil
}
