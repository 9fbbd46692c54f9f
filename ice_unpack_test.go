package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iceHeader(crunched, decrunched int) []byte {
	h := make([]byte, iceHeaderSize)
	binary.BigEndian.PutUint32(h[0:], iceMagic)
	binary.BigEndian.PutUint32(h[4:], uint32(crunched))
	binary.BigEndian.PutUint32(h[8:], uint32(decrunched))
	return h
}

// iceStored packs payload (15..269 bytes) as a single literal run: a flag
// bit, the length code 1|11|11|111|xxxxxxxx and nothing else.
func iceStored(t *testing.T, payload []byte) []byte {
	t.Helper()
	require.True(t, len(payload) >= 15 && len(payload) <= 269)
	v := byte(len(payload) - 15)
	out := iceHeader(iceHeaderSize+len(payload)+3, len(payload))
	out = append(out, payload...)
	return append(out, (v&3)<<6, 0xC0|v>>2, 0xFF)
}

func TestICE_Header(t *testing.T) {
	data := iceHeader(256, 512)
	require.True(t, isICE(data))
	c, d := iceLengths(data)
	assert.Equal(t, 256, c)
	assert.Equal(t, 512, d)

	assert.False(t, isICE(data[:3]))
	assert.False(t, isICE(make([]byte, 16)))
}

func TestICE_ShortLiteral(t *testing.T) {
	// Flag 1, length code 0 (one byte), marker.
	data := append(iceHeader(14, 1), 'X', 0xA0)
	out, err := UnpackICE(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("X"), out)

	// Flag 1, length code 1|00 (two bytes).
	data = append(iceHeader(15, 2), 'P', 'V', 0xC8)
	out, err = UnpackICE(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("PV"), out)
}

func TestICE_LongLiteral(t *testing.T) {
	payload := bytes.Repeat([]byte("palette!"), 20)
	out, err := UnpackICE(iceStored(t, payload))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestICE_Rejects(t *testing.T) {
	_, err := UnpackICE([]byte("PNG not ice"))
	assert.Error(t, err)

	_, err = UnpackICE(iceHeader(100, 10))
	assert.ErrorContains(t, err, "truncated")

	_, err = UnpackICE(iceHeader(iceHeaderSize, 10))
	assert.ErrorContains(t, err, "invalid")

	// A two byte literal run with one byte of stream.
	data := append(iceHeader(14, 4), 'X', 0xC8)
	_, err = UnpackICE(data)
	assert.ErrorIs(t, err, errICEUnderflow)
}

func TestLoadPixelSource_PackedPNG(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 0, 255}})
	img.Pix[0] = 1
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "packed.ice")
	require.NoError(t, os.WriteFile(path, iceStored(t, buf.Bytes()), 0o644))

	src, err := LoadPixelSource(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0}, src.Bitmap.Pixels)
	assert.Equal(t, RGBA{255, 255, 0, 255}, src.Palette[1])
}

func BenchmarkICE_LongLiteral(b *testing.B) {
	payload := bytes.Repeat([]byte{0xAA}, 200)
	v := byte(len(payload) - 15)
	data := append(iceHeader(iceHeaderSize+len(payload)+3, len(payload)), payload...)
	data = append(data, (v&3)<<6, 0xC0|v>>2, 0xFF)
	b.ResetTimer()
	for b.Loop() {
		if _, err := UnpackICE(data); err != nil {
			b.Fatal(err)
		}
	}
}
