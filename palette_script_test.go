package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaPalette_EntryForms(t *testing.T) {
	src := `
function palette(frame)
  return {
    0x11223344,
    {1, 2, 3},
    {r = 4, g = 5, b = 6, a = 7},
    rgba(8, 9, 10, 11),
  }
end`
	lp, err := NewLuaPalette("forms", src, DefaultPalette())
	require.NoError(t, err)
	defer lp.Close()

	pal, err := lp.PaletteAt(0)
	require.NoError(t, err)
	assert.Equal(t, RGBA{0x11, 0x22, 0x33, 0x44}, pal[0])
	assert.Equal(t, RGBA{1, 2, 3, 255}, pal[1])
	assert.Equal(t, RGBA{4, 5, 6, 7}, pal[2])
	assert.Equal(t, RGBA{8, 9, 10, 11}, pal[3])
	assert.Equal(t, RGBA{}, pal[4])
}

func TestLuaPalette_RotatesBase(t *testing.T) {
	src := `
function palette(frame)
  local out = {}
  for i = 1, 256 do
    out[i] = BASE[((i - 1 + frame) % 256) + 1]
  end
  return out
end`
	base := DefaultPalette()
	lp, err := NewLuaPalette("rotate", src, base)
	require.NoError(t, err)
	defer lp.Close()

	pal, err := lp.PaletteAt(3)
	require.NoError(t, err)
	assert.Equal(t, base[3], pal[0])
	assert.Equal(t, base[2], pal[255])
}

func TestLuaPalette_LoadErrors(t *testing.T) {
	_, err := NewLuaPalette("syntax", "function palette(", DefaultPalette())
	assert.Error(t, err)
	_, err = NewLuaPalette("nofunc", "x = 1", DefaultPalette())
	assert.ErrorContains(t, err, "no global function")
}

func TestLuaPalette_BadResults(t *testing.T) {
	tests := map[string]string{
		"not a table":     `function palette(f) return 5 end`,
		"runtime error":   `function palette(f) error("boom") end`,
		"too many":        `function palette(f) local t = {} for i = 1, 257 do t[i] = 0 end return t end`,
		"component range": `function palette(f) return {{300, 0, 0}} end`,
		"missing blue":    `function palette(f) return {{r = 1, g = 2}} end`,
		"string entry":    `function palette(f) return {"red"} end`,
		"negative packed": `function palette(f) return {-1} end`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			lp, err := NewLuaPalette(name, src, DefaultPalette())
			require.NoError(t, err)
			defer lp.Close()
			_, err = lp.PaletteAt(1)
			assert.Error(t, err)
		})
	}
}

func TestPackRGBA(t *testing.T) {
	c := RGBA{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, uint32(0xdeadbeef), packRGBA(c))
	assert.Equal(t, c, unpackRGBA(0xdeadbeef))
}

func TestCyclingProvider_WrapsPeriod(t *testing.T) {
	p := cyclingPalette{Period: 10}
	a, _ := p.PaletteAt(3)
	b, _ := p.PaletteAt(13)
	assert.Equal(t, a, b)
	zero, _ := cyclingPalette{}.PaletteAt(5)
	assert.Equal(t, CyclingPalette(0), zero)
}
