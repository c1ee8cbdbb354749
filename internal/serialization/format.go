package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes       = "BORN"
	FormatVersion    = 2
	HeaderAlignment  = 64
	FixedHeaderSize  = 64
	ChecksumSize     = 32
	ChecksumOffset   = 0x20
	headerSizeOffset = 0x10
	dataSizeOffset   = 0x18
)

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // custom metadata included
)

// Producer is recorded in every header written by this package.
const Producer = "litsnet"

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion   int               `json:"format_version"`
	Producer        string            `json:"producer"`
	ProducerVersion string            `json:"producer_version"`
	ModelType       string            `json:"model_type"`
	CreatedAt       time.Time         `json:"created_at"`
	Tensors         []TensorMeta      `json:"tensors"`
	Metadata        map[string]string `json:"metadata"`
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "policy_0.weight"
	DType  string `json:"dtype"`  // e.g. "float32"
	Shape  []int  `json:"shape"`  // tensor dimensions
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// padding returns the number of zero bytes between the JSON header and the
// data section.
func padding(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
