package serialize

import (
	"bytes"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("restapi-airport "), 256)

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Errorf("compressed %d bytes into %d", len(data), len(compressed))
	}

	d, err := NewDecompressor()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	got, err := d.Decompress(compressed)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("Decompress = %d bytes, %v", len(got), err)
	}
}

func TestPackCompressed(t *testing.T) {
	data := []byte(`{"schemas": ["github"]}`)
	packed, err := PackCompressed(data)
	if err != nil {
		t.Fatalf("PackCompressed failed: %v", err)
	}
	got, err := UnpackCompressed(packed)
	if err != nil {
		t.Fatalf("UnpackCompressed failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q, want %q", got, data)
	}
}
