package wgpu

import (
	"fmt"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline draws the full-screen atlas quad.
//
// Bind group 0 holds the sampler at binding 0 and the atlas texture at
// binding 1. The quad is generated in the vertex shader, so the pipeline has
// no vertex buffers.
type Pipeline struct {
	dev          *Device
	label        string
	atlas        *Image
	targetFormat backend.Format

	vsModule   hal.ShaderModule
	fsModule   hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	bindGroup  hal.BindGroup
	pipeline   hal.RenderPipeline
}

func newPipeline(d *Device, atlas *Image, desc backend.PipelineDescriptor) (*Pipeline, error) {
	targetFormat := desc.TargetFormat
	halTarget, err := textureFormat(targetFormat)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		dev:          d,
		label:        desc.Label,
		atlas:        atlas,
		targetFormat: targetFormat,
	}
	if err := p.build(halTarget, desc.Filter); err != nil {
		p.destroy()
		return nil, err
	}
	slogger().Debug("wgpu: pipeline created", "label", p.label, "target", targetFormat)
	return p, nil
}

func (p *Pipeline) build(target gputypes.TextureFormat, filter backend.Filter) error {
	device := p.dev.device
	var err error

	if p.vsModule, err = createShaderModule(device, "quad_vertex", quadVertexWGSL); err != nil {
		return err
	}
	if p.fsModule, err = createShaderModule(device, "quad_fragment", quadFragmentWGSL); err != nil {
		return err
	}

	p.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "camwall_atlas_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "camwall_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	mode := filterMode(filter)
	p.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "camwall_atlas_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: mode,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	p.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "camwall_atlas_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.SamplerBinding{
				Sampler: p.sampler.NativeHandle(),
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: p.atlas.view.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	p.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "camwall_quad",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vsModule,
			EntryPoint: vertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fsModule,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    target,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	return nil
}

// Label returns the debug label.
func (p *Pipeline) Label() string { return p.label }

// TargetFormat returns the format the pipeline renders to.
func (p *Pipeline) TargetFormat() backend.Format { return p.targetFormat }

// destroy releases GPU objects in reverse creation order. Partially built
// pipelines are handled.
func (p *Pipeline) destroy() {
	device := p.dev.device
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.sampler != nil {
		device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.fsModule != nil {
		device.DestroyShaderModule(p.fsModule)
		p.fsModule = nil
	}
	if p.vsModule != nil {
		device.DestroyShaderModule(p.vsModule)
		p.vsModule = nil
	}
}
