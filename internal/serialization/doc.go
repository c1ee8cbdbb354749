// Package serialization implements the .born model file format used to
// persist LITSNet parameters together with the traced graph.
//
//	Format Structure (version 2):
//	  0x00 [4 bytes: Magic "BORN"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header size (uint64 LE)]
//	  0x18 [8 bytes: Data size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the data section]
//	  0x40 [Header: JSON metadata]
//	       [Zero padding to a 64-byte boundary]
//	       [Tensor data: raw little-endian bytes]
//
// Tensors are laid out in name order, so encoding the same state dict with
// the same header always yields identical bytes.
//
// Example usage:
//
//	header := serialization.Header{ModelType: "LITSNet", CreatedAt: now}
//	if err := serialization.WriteFile("model.born", model.StateDict(), header); err != nil {
//	    return err
//	}
//
//	r, err := serialization.Open("model.born")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	stateDict, err := r.ReadStateDict()
package serialization
