// palette_script.go - Lua-driven palette animation

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
palette_script.go - Palette Scripts

A palette script is a Lua chunk defining a global function

  function palette(frame) ... end

called once per tick with the animation frame number. It returns a table of
up to 256 entries, entry 1 being palette index 0. Each entry is either a
packed 0xRRGGBBAA number or a table {r, g, b[, a]} (positional or named).
Missing entries are (0,0,0,0); alpha defaults to 255 in table form.

Globals available to the script:
  BASE          the source image palette, packed numbers, 256 entries
  rgba(r,g,b,a) packs four components into a number
*/

package main

import (
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

const paletteScriptFunc = "palette"

// PaletteProvider yields the palette for an animation frame.
type PaletteProvider interface {
	PaletteAt(frame uint64) (Palette, error)
}

type staticPalette struct {
	palette Palette
}

func (s staticPalette) PaletteAt(uint64) (Palette, error) {
	return s.palette, nil
}

// cyclingPalette runs the built-in colour cycle with a period of Period
// frames.
type cyclingPalette struct {
	Period uint64
}

func (c cyclingPalette) PaletteAt(frame uint64) (Palette, error) {
	period := max(c.Period, 1)
	return CyclingPalette(float64(frame%period) / float64(period)), nil
}

type LuaPalette struct {
	state *lua.LState
	name  string
}

// NewLuaPalette compiles source and checks that it defines palette().
func NewLuaPalette(name, source string, base Palette) (*LuaPalette, error) {
	L := lua.NewState()
	L.SetGlobal("BASE", paletteTable(L, base))
	L.SetGlobal("rgba", L.NewFunction(luaPackRGBA))

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, errors.Wrapf(err, "load palette script %s", name)
	}
	if L.GetGlobal(paletteScriptFunc).Type() != lua.LTFunction {
		L.Close()
		return nil, errors.Errorf("palette script %s: no global function %s(frame)", name, paletteScriptFunc)
	}
	return &LuaPalette{state: L, name: name}, nil
}

func (p *LuaPalette) PaletteAt(frame uint64) (Palette, error) {
	L := p.state
	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(paletteScriptFunc),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(frame))
	if err != nil {
		return Palette{}, errors.Wrapf(err, "palette script %s frame %d", p.name, frame)
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return Palette{}, errors.Errorf("palette script %s returned %s, want table", p.name, ret.Type())
	}
	if n := tbl.Len(); n > PaletteSize {
		return Palette{}, errors.Errorf("palette script %s returned %d entries, at most %d allowed", p.name, n, PaletteSize)
	}

	var pal Palette
	for i := range PaletteSize {
		v := tbl.RawGetInt(i + 1)
		if v == lua.LNil {
			continue
		}
		c, err := luaToRGBA(v)
		if err != nil {
			return Palette{}, errors.Wrapf(err, "palette script %s entry %d", p.name, i)
		}
		pal[i] = c
	}
	return pal, nil
}

func (p *LuaPalette) Close() {
	p.state.Close()
}

func packRGBA(c RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func unpackRGBA(v uint32) RGBA {
	return RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func paletteTable(L *lua.LState, p Palette) *lua.LTable {
	tbl := L.CreateTable(PaletteSize, 0)
	for i, c := range p {
		tbl.RawSetInt(i+1, lua.LNumber(packRGBA(c)))
	}
	return tbl
}

func luaPackRGBA(L *lua.LState) int {
	r := L.CheckInt(1)
	g := L.CheckInt(2)
	b := L.CheckInt(3)
	a := L.OptInt(4, 255)
	L.Push(lua.LNumber(packRGBA(RGBA{uint8(r), uint8(g), uint8(b), uint8(a)})))
	return 1
}

func luaToRGBA(v lua.LValue) (RGBA, error) {
	switch x := v.(type) {
	case lua.LNumber:
		if x < 0 || x > 0xFFFFFFFF {
			return RGBA{}, errors.Errorf("packed colour %v out of range", x)
		}
		return unpackRGBA(uint32(x)), nil
	case *lua.LTable:
		component := func(name string, pos int, def int) (uint8, error) {
			f := x.RawGetString(name)
			if f == lua.LNil {
				f = x.RawGetInt(pos)
			}
			if f == lua.LNil {
				if def < 0 {
					return 0, errors.Errorf("missing component %s", name)
				}
				return uint8(def), nil
			}
			n, ok := f.(lua.LNumber)
			if !ok || n < 0 || n > 255 {
				return 0, errors.Errorf("component %s is %v", name, f)
			}
			return uint8(n), nil
		}
		var c RGBA
		var err error
		if c.R, err = component("r", 1, -1); err != nil {
			return RGBA{}, err
		}
		if c.G, err = component("g", 2, -1); err != nil {
			return RGBA{}, err
		}
		if c.B, err = component("b", 3, -1); err != nil {
			return RGBA{}, err
		}
		if c.A, err = component("a", 4, 255); err != nil {
			return RGBA{}, err
		}
		return c, nil
	}
	return RGBA{}, errors.Errorf("entry is a %s", v.Type())
}
