package main

import (
	"bytes"
	"errors"
	"testing"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, align, want int
	}{
		{0, 256, 0},
		{1, 256, 256},
		{255, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{320, 256, 512},
		{3, 4, 4},
		{8, 4, 8},
	}
	for _, tc := range tests {
		if got := alignUp(tc.n, tc.align); got != tc.want {
			t.Fatalf("alignUp(%d, %d) = %d, want %d", tc.n, tc.align, got, tc.want)
		}
	}
}

func TestPadRows_CopiesEachRowToStride(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6}
	got := PadRows(src, 3, 2, 4)
	want := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("PadRows = %v, want %v", got, want)
	}
}

func TestPadRows_AlignedWidthHasNoPadding(t *testing.T) {
	src := make([]byte, 256*3)
	for i := range src {
		src[i] = byte(i * 7)
	}
	got := PadRows(src, 256, 3, 256)
	if !bytes.Equal(got, src) {
		t.Fatal("rows already on the alignment quantum should copy through unchanged")
	}
}

func TestPadRows_320WideBitmap(t *testing.T) {
	src := make([]byte, 320*2)
	for i := range src {
		src[i] = byte(i)
	}
	got := PadRows(src, 320, 2, DefaultRowAlignment)
	if len(got) != 512*2 {
		t.Fatalf("padded length = %d, want %d", len(got), 1024)
	}
	if !bytes.Equal(got[512:512+320], src[320:]) {
		t.Fatal("second row not placed at stride 512")
	}
}

func TestNewTextureUploader_Alignment(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	u, err := NewTextureUploader(gpu, 0)
	if err != nil {
		t.Fatalf("NewTextureUploader(0): %v", err)
	}
	if u.Alignment() != DefaultRowAlignment {
		t.Fatalf("default alignment = %d, want %d", u.Alignment(), DefaultRowAlignment)
	}
	for _, bad := range []int{3, 100, -256} {
		if _, err := NewTextureUploader(gpu, bad); err == nil {
			t.Fatalf("alignment %d accepted", bad)
		}
	}
}

func TestTextureUploader_UploadRecordsPaddedCopy(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	tex, err := gpu.CreateTexture(TextureDescriptor{Label: "index", Width: 3, Height: 2, Format: PixelFormatR8})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	u, _ := NewTextureUploader(gpu, 256)

	pixels := []byte{10, 11, 12, 20, 21, 22}
	enc := NewCommandEncoder("test")
	staging, err := u.Upload(enc, "bitmap", tex, pixels, 3, 2, PixelFormatR8)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	cb := enc.Finish()
	if len(cb.Commands) != 1 {
		t.Fatalf("recorded %d commands, want 1", len(cb.Commands))
	}
	cmd, ok := cb.Commands[0].(CopyBufferToTextureCommand)
	if !ok {
		t.Fatalf("recorded %T, want CopyBufferToTextureCommand", cb.Commands[0])
	}
	if cmd.Layout.BytesPerRow != 256 || cmd.Layout.RowsPerImage != 2 {
		t.Fatalf("layout = %+v, want 256 bytes/row, 2 rows", cmd.Layout)
	}
	if cmd.Size != (Extent{Width: 3, Height: 2}) || cmd.Origin != [3]int{} {
		t.Fatalf("copy extent %+v origin %v", cmd.Size, cmd.Origin)
	}

	if err := gpu.Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	gpu.DestroyBuffer(staging)

	got, _ := gpu.TextureData(tex)
	if !bytes.Equal(got, pixels) {
		t.Fatalf("texture = %v, want %v", got, pixels)
	}
	if _, buffers, _ := gpu.LiveResources(); buffers != 0 {
		t.Fatalf("%d buffers alive after destroying staging", buffers)
	}
}

func TestTextureUploader_RejectsShortPixelBuffer(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	u, _ := NewTextureUploader(gpu, 256)
	_, err := u.Upload(NewCommandEncoder("test"), "bitmap", 1, make([]byte, 5), 3, 2, PixelFormatR8)
	if !errors.Is(err, ErrInvalidBitmap) {
		t.Fatalf("err = %v, want ErrInvalidBitmap", err)
	}
}

func TestTextureUploader_RepeatedUploadIsIdempotent(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	tex, _ := gpu.CreateTexture(TextureDescriptor{Width: 4, Height: 4, Format: PixelFormatR8})
	u, _ := NewTextureUploader(gpu, 256)
	pixels := bytes.Repeat([]byte{7, 8, 9, 10}, 4)

	var first []byte
	for i := range 3 {
		enc := NewCommandEncoder("test")
		staging, err := u.Upload(enc, "bitmap", tex, pixels, 4, 4, PixelFormatR8)
		if err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
		if err := gpu.Submit(enc.Finish()); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		gpu.DestroyBuffer(staging)
		got, _ := gpu.TextureData(tex)
		if first == nil {
			first = got
		} else if !bytes.Equal(got, first) {
			t.Fatalf("upload %d changed texture contents", i)
		}
	}
}

func TestTextureUploader_BufferFailurePropagates(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	u, _ := NewTextureUploader(gpu, 256)
	gpu.FailNextBufferCreation(ErrOutOfMemory)
	_, err := u.Upload(NewCommandEncoder("test"), "bitmap", 1, make([]byte, 4), 2, 2, PixelFormatR8)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}
}

func BenchmarkTextureUpload_320x240(b *testing.B) {
	gpu := NewSoftwareGPU(0)
	tex, _ := gpu.CreateTexture(TextureDescriptor{Width: 320, Height: 240, Format: PixelFormatR8})
	u, _ := NewTextureUploader(gpu, DefaultRowAlignment)
	pixels := make([]byte, 320*240)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc := NewCommandEncoder("bench")
		staging, err := u.Upload(enc, "bitmap", tex, pixels, 320, 240, PixelFormatR8)
		if err != nil {
			b.Fatal(err)
		}
		if err := gpu.Submit(enc.Finish()); err != nil {
			b.Fatal(err)
		}
		gpu.DestroyBuffer(staging)
	}
}
