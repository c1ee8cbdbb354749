package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/born-ml/litsnet/internal/blobs"
	"github.com/born-ml/litsnet/internal/config"
	"github.com/born-ml/litsnet/internal/litsnet"
	"github.com/born-ml/litsnet/internal/onnx"
	"github.com/born-ml/litsnet/internal/serialization"
)

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	model := fs.String("model", "", "artifact path or location (default <neural.path>/<neural.template>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	loc := *model
	if loc == "" {
		loc = cfg.TemplatePath()
	}

	path, cleanup, err := fetch(ctx, loc)
	if err != nil {
		return err
	}
	defer cleanup()

	format, err := litsnet.FormatOf(path)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if format == litsnet.FormatONNX {
		return inspectONNX(w, path)
	}
	return inspectBorn(w, path)
}

// fetch downloads remote locations into a temporary directory.
func fetch(ctx context.Context, loc string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "litsnet-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	path, err := blobs.Fetch(ctx, loc, dir)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func inspectBorn(w *tabwriter.Writer, path string) error {
	r, err := serialization.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	h := r.Header()
	fmt.Fprintf(w, "format\tborn v%d\n", h.FormatVersion)
	fmt.Fprintf(w, "producer\t%s %s\n", h.Producer, h.ProducerVersion)
	fmt.Fprintf(w, "model\t%s\n", h.ModelType)
	fmt.Fprintf(w, "created\t%s\n", h.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "checksum\t%x\n", r.Checksum())

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		if k != litsnet.MetaTrace && k != litsnet.MetaArchitecture {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, h.Metadata[k])
	}

	fmt.Fprintf(w, "\ntensor\tdtype\tshape\tbytes\n")
	for _, t := range h.Tensors {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", t.Name, t.DType, t.Shape, t.Size)
	}

	if raw, ok := h.Metadata[litsnet.MetaTrace]; ok {
		var trace litsnet.Trace
		if err := json.Unmarshal([]byte(raw), &trace); err != nil {
			return fmt.Errorf("decoding trace: %w", err)
		}
		fmt.Fprintf(w, "\nop\tlayer\tinput\toutput\tshape\n")
		for _, op := range trace.Ops {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", op.Op, op.Layer, op.Input, op.Output, op.Shape)
		}
		fmt.Fprintf(w, "outputs\t%s\n", strings.Join(trace.Outputs, ", "))
	}
	return nil
}

func inspectONNX(w *tabwriter.Writer, path string) error {
	m, err := onnx.ParseFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "format\tonnx ir %d\n", m.IRVersion)
	for _, op := range m.OpsetImport {
		fmt.Fprintf(w, "opset\t%q v%d\n", op.Domain, op.Version)
	}
	fmt.Fprintf(w, "producer\t%s %s\n", m.ProducerName, m.ProducerVersion)
	for _, p := range m.MetadataProps {
		if p.Key != litsnet.MetaTrace && p.Key != litsnet.MetaArchitecture {
			fmt.Fprintf(w, "%s\t%s\n", p.Key, p.Value)
		}
	}
	if m.Graph == nil {
		return fmt.Errorf("%s: model has no graph", path)
	}
	g := m.Graph

	fmt.Fprintf(w, "\nvalue\tshape\n")
	for _, vi := range slices.Concat(g.Inputs, g.Outputs) {
		fmt.Fprintf(w, "%s\t%s\n", vi.Name, formatDims(vi))
	}

	fmt.Fprintf(w, "\nnode\top\tinputs\toutputs\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Name, n.OpType, strings.Join(n.Inputs, ","), strings.Join(n.Outputs, ","))
	}

	total := 0
	for _, t := range g.Initializers {
		n := 1
		for _, d := range t.Dims {
			n *= int(d)
		}
		total += n
	}
	fmt.Fprintf(w, "\ninitializers\t%d (%d parameters)\n", len(g.Initializers), total)
	return nil
}

func formatDims(vi onnx.ValueInfoProto) string {
	if vi.Type == nil || vi.Type.TensorType == nil || vi.Type.TensorType.Shape == nil {
		return "?"
	}
	dims := make([]string, len(vi.Type.TensorType.Shape.Dims))
	for i, d := range vi.Type.TensorType.Shape.Dims {
		if d.DimParam != "" {
			dims[i] = d.DimParam
		} else {
			dims[i] = fmt.Sprint(d.DimValue)
		}
	}
	return "[" + strings.Join(dims, " ") + "]"
}
