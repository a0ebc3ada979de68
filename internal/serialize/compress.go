package serialize

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hugr-lab/restapi-airport/internal/msgpack"
)

// Compressor handles ZStandard compression of catalog payloads.
// EncodeAll is goroutine-safe, so one Compressor is shared by all handlers.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor creates a reusable ZStandard compressor at SpeedDefault.
// Caller must call Close() when done to release resources.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress compresses data using ZStandard.
func (c *Compressor) Compress(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Close releases compressor resources.
func (c *Compressor) Close() error {
	if c.encoder != nil {
		return c.encoder.Close()
	}
	return nil
}

// Decompressor handles ZStandard decompression.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor creates a reusable ZStandard decompressor.
// Caller must call Close() when done to release resources.
func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress decompresses ZStandard data.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return []byte{}, nil
	}
	decompressed, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return decompressed, nil
}

// Close releases decompressor resources.
func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}

var sharedCompressor = sync.OnceValues(NewCompressor)

// Compress compresses data with the process-wide compressor.
func Compress(data []byte) ([]byte, error) {
	c, err := sharedCompressor()
	if err != nil {
		return nil, err
	}
	return c.Compress(data), nil
}

// PackCompressed compresses data and wraps it the way the Airport extension
// expects compressed content: a MessagePack array of the uncompressed
// length and the compressed bytes.
func PackCompressed(data []byte) ([]byte, error) {
	compressed, err := Compress(data)
	if err != nil {
		return nil, err
	}
	return msgpack.Encode([]any{uint32(len(data)), string(compressed)})
}

// UnpackCompressed reverses PackCompressed.
func UnpackCompressed(packed []byte) ([]byte, error) {
	var content []any
	if err := msgpack.Decode(packed, &content); err != nil {
		return nil, err
	}
	if len(content) != 2 {
		return nil, fmt.Errorf("compressed content has %d elements, want 2", len(content))
	}
	var compressed []byte
	switch v := content[1].(type) {
	case string:
		compressed = []byte(v)
	case []byte:
		compressed = v
	default:
		return nil, fmt.Errorf("compressed content data has type %T", content[1])
	}

	d, err := NewDecompressor()
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Decompress(compressed)
}
