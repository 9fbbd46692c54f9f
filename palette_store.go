// palette_store.go - 256-entry RGBA palette for PaletteView

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PaletteView

License: GPLv3 or later
*/

/*
palette_store.go - Palette Store

The palette is a 256x1 RGBA8 lookup texture next to the indexed bitmap.
The fragment stage samples the index texture (nearest, non-filtering) and
uses the result to address this table.

Payload layout:
  entry i -> bytes [i*4 .. i*4+3] = R, G, B, A

Entries past the source image's colour count are (0,0,0,0). Before any
explicit Set the store holds a deterministic ramp:
  entry i = (i*2 mod 256, i*3 mod 256, i*4 mod 256, 255)
*/

package main

import (
	"fmt"
	"image/color"
)

const (
	PaletteSize       = 256
	PaletteEntryBytes = 4
	PaletteBytes      = PaletteSize * PaletteEntryBytes
)

type RGBA struct {
	R, G, B, A uint8
}

func rgbaFromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

type Palette [PaletteSize]RGBA

func DefaultPalette() Palette {
	var p Palette
	for i := range p {
		p[i] = RGBA{
			R: uint8(i * 2),
			G: uint8(i * 3),
			B: uint8(i * 4),
			A: 255,
		}
	}
	return p
}

// PadPalette builds a full palette from up to 256 colours; the rest stay
// zero. Colours past 256 are dropped.
func PadPalette(colors []RGBA) Palette {
	var p Palette
	copy(p[:], colors)
	return p
}

// CyclingPalette shifts a ramp by 256*t, t in [0,1).
func CyclingPalette(t float64) Palette {
	var p Palette
	x := uint8(int(256 * t))
	for i := range p {
		p[i] = RGBA{
			R: x + uint8(i*2),
			G: x + uint8(i*4),
			B: x + uint8(i),
			A: 255,
		}
	}
	return p
}

func (p *Palette) Bytes() []byte {
	out := make([]byte, PaletteBytes)
	for i, c := range p {
		out[i*4+0] = c.R
		out[i*4+1] = c.G
		out[i*4+2] = c.B
		out[i*4+3] = c.A
	}
	return out
}

func PaletteFromBytes(b []byte) (Palette, error) {
	var p Palette
	if len(b) != PaletteBytes {
		return p, fmt.Errorf("palette payload is %d bytes, want %d", len(b), PaletteBytes)
	}
	for i := range p {
		p[i] = RGBA{R: b[i*4], G: b[i*4+1], B: b[i*4+2], A: b[i*4+3]}
	}
	return p, nil
}

func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, PaletteSize)
	for i, c := range p {
		cp[i] = c.NRGBA()
	}
	return cp
}

// PaletteStore holds the palette of one presenter. Set replaces the whole
// table by value, so a frame sees either the old or the new palette.
type PaletteStore struct {
	current Palette
	version uint64
}

func NewPaletteStore() *PaletteStore {
	return &PaletteStore{current: DefaultPalette()}
}

func (s *PaletteStore) Set(p Palette) {
	s.current = p
	s.version++
}

func (s *PaletteStore) SetColors(colors []RGBA) {
	s.Set(PadPalette(colors))
}

func (s *PaletteStore) Palette() Palette {
	return s.current
}

func (s *PaletteStore) Version() uint64 {
	return s.version
}

func (s *PaletteStore) Payload() []byte {
	return s.current.Bytes()
}

// Upload records the copy of the current palette into the 256x1 lookup
// texture and returns the staging buffer to release after submission.
func (s *PaletteStore) Upload(enc *CommandEncoder, u *TextureUploader, tex TextureID) (BufferID, error) {
	return u.Upload(enc, "palette", tex, s.Payload(), PaletteSize, 1, PixelFormatRGBA8)
}
