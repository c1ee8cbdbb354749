package serialization

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/born-ml/litsnet/internal/tensor"
)

// Encode writes stateDict and header to w in .born format and returns the
// number of bytes written.
//
// header.Tensors is computed from stateDict; FormatVersion and Producer are
// filled in when unset. CreatedAt is written as given, so callers wanting
// reproducible output pass a fixed time.
func Encode(w io.Writer, stateDict map[string]*tensor.RawTensor, header Header) (int64, error) {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = FormatVersion
	if header.Producer == "" {
		header.Producer = Producer
	}
	if header.Metadata == nil {
		header.Metadata = map[string]string{}
	}

	var offset int64
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := stateDict[name]
		if raw == nil {
			return 0, fmt.Errorf("tensor %q is nil", name)
		}
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape().Clone()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}
	if err := ValidateHeader(&header, offset, ValidationStrict); err != nil {
		return 0, fmt.Errorf("invalid state dict: %w", err)
	}

	h := ComputeChecksumOf(names, stateDict)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return 0, ErrHeaderTooLarge
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[headerSizeOffset:headerSizeOffset+8], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[dataSizeOffset:dataSizeOffset+8], uint64(offset)) //nolint:gosec // offset is a sum of sizes
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], h[:])

	cw := &countingWriter{w: w}
	if _, err := cw.Write(fixed); err != nil {
		return cw.n, fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := cw.Write(headerJSON); err != nil {
		return cw.n, fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(len(headerJSON))); pad > 0 {
		if _, err := cw.Write(make([]byte, pad)); err != nil {
			return cw.n, fmt.Errorf("failed to write padding: %w", err)
		}
	}
	for _, name := range names {
		if _, err := cw.Write(stateDict[name].Data()); err != nil {
			return cw.n, fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return cw.n, nil
}

// ComputeChecksumOf hashes the data section that Encode would produce for
// the named tensors, in the given order.
func ComputeChecksumOf(names []string, stateDict map[string]*tensor.RawTensor) [32]byte {
	readers := make([]io.Reader, 0, len(names))
	for _, name := range names {
		readers = append(readers, bytes.NewReader(stateDict[name].Data()))
	}
	sum, _ := ComputeChecksumReader(io.MultiReader(readers...)) // in-memory readers cannot fail
	return sum
}

// WriteFile encodes stateDict to path. The file is written next to path and
// renamed into place, so readers never observe a partial artifact. Missing
// parent directories are created.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, header Header) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if _, err := Encode(bw, stateDict, header); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
