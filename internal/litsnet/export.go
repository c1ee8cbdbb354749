package litsnet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/born-ml/litsnet/internal/onnx"
	"github.com/born-ml/litsnet/internal/serialization"
	"github.com/born-ml/litsnet/internal/tensor"
)

// Format selects the artifact encoding.
type Format string

// Supported artifact formats.
const (
	FormatBorn Format = "born"
	FormatONNX Format = "onnx"
)

// ErrUnsupportedFormat is returned for unknown formats and file extensions.
var ErrUnsupportedFormat = errors.New("litsnet: unsupported artifact format")

// ParseFormat parses "born" or "onnx".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatBorn, FormatONNX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Metadata keys written to every artifact.
const (
	MetaTrace        = "trace"
	MetaArchitecture = "architecture"
	MetaMode         = "mode"
	MetaInputShape   = "input_shape"
	MetaParameters   = "parameters"
	MetaCreatedAt    = "created_at"
)

// ExampleShape is the shape of the tracing example.
var ExampleShape = tensor.Shape{1, Channels, BoardSize, BoardSize}

// ExportOptions configures Export.
type ExportOptions struct {
	// Format overrides the format implied by the path extension.
	Format Format

	// CreatedAt is stored in the artifact. The zero value means now; pass a
	// fixed time for byte-identical output.
	CreatedAt time.Time

	// Metadata is merged into the artifact metadata. Reserved keys win.
	Metadata map[string]string
}

// Artifact describes a written model file.
type Artifact struct {
	Path   string
	Format Format
	Size   int64
	SHA256 string
	Trace  *Trace
}

// Export puts m in eval mode, traces it with a uniform random example drawn
// from the model's random source and writes the result to path. Only the
// trace's names and shapes are stored, so repeated exports of one model with
// a fixed CreatedAt are byte-identical.
func Export(ctx context.Context, m *LITSNet, path string, opts ExportOptions) (*Artifact, error) {
	logger := klog.FromContext(ctx)

	format := opts.Format
	if format == "" {
		var err error
		if format, err = FormatOf(path); err != nil {
			return nil, err
		}
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	m.Eval()
	example := tensor.Uniform[float32](ExampleShape, 0, 1, m.rng, m.backend)
	trace, err := m.Trace(example)
	if err != nil {
		return nil, fmt.Errorf("failed to trace model: %w", err)
	}
	meta, err := artifactMetadata(m, trace, opts.Metadata)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch format {
	case FormatBorn:
		header := serialization.Header{
			ProducerVersion: Version,
			ModelType:       ModelType,
			CreatedAt:       createdAt,
			Metadata:        meta,
		}
		err = serialization.WriteFile(path, m.StateDict(), header)
	case FormatONNX:
		meta[MetaCreatedAt] = createdAt.Format(time.RFC3339)
		var proto *onnx.ModelProto
		if proto, err = toONNX(trace, m.StateDict(), meta); err == nil {
			err = onnx.WriteFile(path, proto)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	size, sum, err := digest(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Exported model", "path", path, "format", format, "bytes", size,
		"parameters", m.NumParameters(), "sha256", sum)

	return &Artifact{Path: path, Format: format, Size: size, SHA256: sum, Trace: trace}, nil
}

func artifactMetadata(m *LITSNet, trace *Trace, extra map[string]string) (map[string]string, error) {
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trace: %w", err)
	}
	meta := make(map[string]string, len(extra)+5)
	maps.Copy(meta, extra)
	meta[MetaTrace] = string(traceJSON)
	meta[MetaArchitecture] = m.String()
	meta[MetaMode] = "eval"
	meta[MetaInputShape] = formatShape(trace.InputShape)
	meta[MetaParameters] = strconv.Itoa(m.NumParameters())
	return meta, nil
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// digest returns the size and hex SHA-256 of a file.
func digest(path string) (int64, string, error) {
	n, sum, err := serialization.ChecksumFile(path)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(sum[:]), nil
}
