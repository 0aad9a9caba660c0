package state

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// compressBlob wraps the save JSON in a zstd frame.
func compressBlob(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress save: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finish save frame: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressBlob unwraps a stored blob. Plain JSON blobs pass through
// unchanged so saves written before compression landed still load.
func decompressBlob(stored []byte) ([]byte, error) {
	if !bytes.HasPrefix(stored, zstdMagic) {
		return stored, nil
	}
	dec, err := zstd.NewReader(bytes.NewReader(stored))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(dec); err != nil {
		return nil, fmt.Errorf("decompress save: %w", err)
	}
	return buf.Bytes(), nil
}
