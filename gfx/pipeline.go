package gfx

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
)

var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

func createRenderPipeline(device *wgpu.Device, name, shaderCode string, format wgpu.TextureFormat, blend *wgpu.BlendState, buffers ...wgpu.VertexBufferLayout) (*wgpu.RenderPipeline, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", name, err)
	}
	defer shader.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: name,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					Blend:     blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		// Quads arrive in either winding depending on the camera's y axis.
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", name, err)
	}
	return pipeline, nil
}

// Texture is a sampled image bound to the quad program's first group.
type Texture struct {
	Width, Height uint32

	texture   *wgpu.Texture
	view      *wgpu.TextureView
	sampler   *wgpu.Sampler
	bindGroup *wgpu.BindGroup
}

func (t *Texture) Release() {
	if t == nil {
		return
	}
	t.bindGroup.Release()
	t.sampler.Release()
	t.view.Release()
	t.texture.Release()
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}

func createTexture(device *wgpu.Device, queue *wgpu.Queue, layout *wgpu.BindGroupLayout, label string, img image.Image, filter wgpu.FilterMode) (*Texture, error) {
	rgba := toNRGBA(img)
	extent := wgpu.Extent3D{
		Width:              uint32(rgba.Rect.Dx()),
		Height:             uint32(rgba.Rect.Dy()),
		DepthOrArrayLayers: 1,
	}

	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}

	err = queue.WriteTexture(
		texture.AsImageCopy(),
		rgba.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rgba.Stride),
			RowsPerImage: extent.Height,
		},
		&extent,
	)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("upload texture %s: %w", label, err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("texture view %s: %w", label, err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("sampler %s: %w", label, err)
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		sampler.Release()
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("bind group %s: %w", label, err)
	}

	return &Texture{
		Width:     extent.Width,
		Height:    extent.Height,
		texture:   texture,
		view:      view,
		sampler:   sampler,
		bindGroup: bindGroup,
	}, nil
}
