// video_pipeline.go - Render pipeline configuration and builder

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

package main

import "fmt"

type ShaderKind int

const (
	ShaderPaletteLookup ShaderKind = iota // colour = palette[index]
	ShaderIndexGray                       // raw index as grey, for palette debugging
)

type BindingType int

const (
	BindingTexture BindingType = iota
	BindingSampler
)

type BindGroupLayoutEntry struct {
	Binding    int
	Type       BindingType
	Filterable bool
}

type BindGroupLayout []BindGroupLayoutEntry

type BindGroupEntry struct {
	Binding int
	Texture TextureID
	Sampler SamplerID
}

type BindGroup struct {
	Entries []BindGroupEntry
}

func (bg BindGroup) entry(binding int) (BindGroupEntry, bool) {
	for _, e := range bg.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return BindGroupEntry{}, false
}

// Fixed binding slots of the indexed presentation layout.
const (
	bindingIndexTexture   = 0
	bindingIndexSampler   = 1
	bindingPaletteTexture = 2
	bindingPaletteSampler = 3
)

// PipelineConfig is everything that differs between presentation variants.
// One builder turns any config into a pipeline plus its bind group.
type PipelineConfig struct {
	Name          string
	BitmapFormat  PixelFormat
	SamplerFilter FilterMode
	Shader        ShaderKind
	Layout        BindGroupLayout
}

func indexedLayout() BindGroupLayout {
	return BindGroupLayout{
		{Binding: bindingIndexTexture, Type: BindingTexture, Filterable: false},
		{Binding: bindingIndexSampler, Type: BindingSampler, Filterable: false},
		{Binding: bindingPaletteTexture, Type: BindingTexture, Filterable: true},
		{Binding: bindingPaletteSampler, Type: BindingSampler, Filterable: true},
	}
}

var (
	IndexedPipelineConfig = PipelineConfig{
		Name:          "indexed",
		BitmapFormat:  PixelFormatR8,
		SamplerFilter: FilterNearest,
		Shader:        ShaderPaletteLookup,
		Layout:        indexedLayout(),
	}
	IndexGrayPipelineConfig = PipelineConfig{
		Name:          "index-gray",
		BitmapFormat:  PixelFormatR8,
		SamplerFilter: FilterNearest,
		Shader:        ShaderIndexGray,
		Layout:        indexedLayout(),
	}
)

func (c PipelineConfig) Validate() error {
	if c.BitmapFormat != PixelFormatR8 {
		return fmt.Errorf("pipeline %s: bitmap format %s is not an index format", c.Name, c.BitmapFormat)
	}
	// Interpolating between neighbouring indices would address unrelated
	// palette entries.
	if c.SamplerFilter != FilterNearest {
		return fmt.Errorf("pipeline %s: index texture must use nearest sampling", c.Name)
	}
	for _, want := range []struct {
		binding int
		typ     BindingType
	}{
		{bindingIndexTexture, BindingTexture},
		{bindingIndexSampler, BindingSampler},
		{bindingPaletteTexture, BindingTexture},
		{bindingPaletteSampler, BindingSampler},
	} {
		found := false
		for _, e := range c.Layout {
			if e.Binding == want.binding {
				if e.Type != want.typ {
					return fmt.Errorf("pipeline %s: binding %d has the wrong type", c.Name, e.Binding)
				}
				if e.Binding == bindingIndexTexture && e.Filterable {
					return fmt.Errorf("pipeline %s: index texture binding must be non-filterable", c.Name)
				}
				found = true
			}
		}
		if !found {
			return fmt.Errorf("pipeline %s: layout is missing binding %d", c.Name, want.binding)
		}
	}
	return nil
}

// builtPipeline is a pipeline with the samplers and bind group that feed it.
type builtPipeline struct {
	config         PipelineConfig
	pipeline       PipelineID
	indexSampler   SamplerID
	paletteSampler SamplerID
	bindGroup      BindGroup
}

func buildPipeline(gpu GPUBackend, cfg PipelineConfig, target PixelFormat, indexTex, paletteTex TextureID) (*builtPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &VideoError{Operation: "pipeline creation", Details: cfg.Name, Err: err}
	}
	indexSampler, err := gpu.CreateSampler(SamplerDescriptor{
		Label:     cfg.Name + " index sampler",
		MagFilter: cfg.SamplerFilter,
		MinFilter: cfg.SamplerFilter,
	})
	if err != nil {
		return nil, err
	}
	// The palette binding accepts filtering samplers but is used in nearest
	// mode so entries never blend.
	paletteSampler, err := gpu.CreateSampler(SamplerDescriptor{
		Label:     cfg.Name + " palette sampler",
		MagFilter: FilterNearest,
		MinFilter: FilterNearest,
	})
	if err != nil {
		gpu.DestroySampler(indexSampler)
		return nil, err
	}
	pipeline, err := gpu.CreateRenderPipeline(PipelineDescriptor{
		Label:        cfg.Name + " pipeline",
		Config:       cfg,
		TargetFormat: target,
	})
	if err != nil {
		gpu.DestroySampler(paletteSampler)
		gpu.DestroySampler(indexSampler)
		return nil, err
	}
	return &builtPipeline{
		config:         cfg,
		pipeline:       pipeline,
		indexSampler:   indexSampler,
		paletteSampler: paletteSampler,
		bindGroup: BindGroup{Entries: []BindGroupEntry{
			{Binding: bindingIndexTexture, Texture: indexTex},
			{Binding: bindingIndexSampler, Sampler: indexSampler},
			{Binding: bindingPaletteTexture, Texture: paletteTex},
			{Binding: bindingPaletteSampler, Sampler: paletteSampler},
		}},
	}, nil
}

// release destroys the pipeline and both of its samplers.
func (b *builtPipeline) release(gpu GPUBackend) {
	gpu.DestroyRenderPipeline(b.pipeline)
	gpu.DestroySampler(b.paletteSampler)
	gpu.DestroySampler(b.indexSampler)
}
