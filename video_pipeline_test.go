package main

import (
	"errors"
	"testing"
)

func TestPipelineConfig_BuiltinsValidate(t *testing.T) {
	for _, cfg := range []PipelineConfig{IndexedPipelineConfig, IndexGrayPipelineConfig} {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: %v", cfg.Name, err)
		}
	}
}

func TestPipelineConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"rgba bitmap", func(c *PipelineConfig) { c.BitmapFormat = PixelFormatRGBA8 }},
		{"linear filter", func(c *PipelineConfig) { c.SamplerFilter = FilterLinear }},
		{"filterable index texture", func(c *PipelineConfig) {
			c.Layout = indexedLayout()
			c.Layout[0].Filterable = true
		}},
		{"missing palette sampler", func(c *PipelineConfig) { c.Layout = indexedLayout()[:3] }},
		{"wrong binding type", func(c *PipelineConfig) {
			c.Layout = indexedLayout()
			c.Layout[2].Type = BindingSampler
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := IndexedPipelineConfig
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestBuildPipeline_BindGroup(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	built, err := buildPipeline(gpu, IndexedPipelineConfig, PixelFormatRGBA8, 11, 22)
	if err != nil {
		t.Fatalf("buildPipeline: %v", err)
	}
	idx, ok := built.bindGroup.entry(bindingIndexTexture)
	if !ok || idx.Texture != 11 {
		t.Fatalf("index texture binding = %+v", idx)
	}
	pal, ok := built.bindGroup.entry(bindingPaletteTexture)
	if !ok || pal.Texture != 22 {
		t.Fatalf("palette texture binding = %+v", pal)
	}
	if s, _ := built.bindGroup.entry(bindingIndexSampler); s.Sampler != built.indexSampler {
		t.Fatal("index sampler not bound")
	}
	if s, _ := built.bindGroup.entry(bindingPaletteSampler); s.Sampler != built.paletteSampler {
		t.Fatal("palette sampler not bound")
	}
	if gpu.samplers[built.indexSampler].MagFilter != FilterNearest {
		t.Fatal("index sampler is not nearest")
	}

	built.release(gpu)
	if n := gpu.LiveSamplers(); n != 0 {
		t.Fatalf("%d samplers alive after release", n)
	}
	if _, _, pipelines := gpu.LiveResources(); pipelines != 0 {
		t.Fatalf("%d pipelines alive after release", pipelines)
	}
}

// refusingPipelineGPU accepts everything except render pipelines.
type refusingPipelineGPU struct {
	*SoftwareGPU
	err error
}

func (g refusingPipelineGPU) CreateRenderPipeline(PipelineDescriptor) (PipelineID, error) {
	return 0, g.err
}

func TestBuildPipeline_FailureFreesSamplers(t *testing.T) {
	gpu := NewSoftwareGPU(0)
	refused := errors.New("pipeline refused")
	_, err := buildPipeline(refusingPipelineGPU{gpu, refused}, IndexedPipelineConfig, PixelFormatRGBA8, 1, 2)
	if !errors.Is(err, refused) {
		t.Fatalf("buildPipeline error = %v", err)
	}
	if n := gpu.LiveSamplers(); n != 0 {
		t.Fatalf("%d samplers left behind", n)
	}
}

func TestBuildPipeline_InvalidConfig(t *testing.T) {
	cfg := IndexedPipelineConfig
	cfg.SamplerFilter = FilterLinear
	if _, err := buildPipeline(NewSoftwareGPU(0), cfg, PixelFormatRGBA8, 1, 2); err == nil {
		t.Fatal("linear index sampling accepted")
	}
}
