// Package compression provides zstd encoding for plan payloads, both for
// the journal and for .zst plan files written with --out.
package compression

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func getEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		// EncodeAll on a shared encoder is safe for concurrent use
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// Compress returns the zstd frame for data.
func Compress(data []byte) []byte {
	return getEncoder().EncodeAll(data, make([]byte, 0, len(data)/3))
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	out, err := getDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// IsCompressedPath reports whether a filename asks for zstd framing.
func IsCompressedPath(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// WriteFile writes data to path, zstd-compressing when the name ends in
// .zst.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if IsCompressedPath(path) {
		data = Compress(data)
	}
	return os.WriteFile(path, data, perm)
}

// ReadFile reads path, transparently decompressing .zst files.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsCompressedPath(path) {
		return Decompress(data)
	}
	return data, nil
}
