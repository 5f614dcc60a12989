// Package gfx draws the game with two small WebGPU programs: an instanced
// tile program for well cells and a textured quad program for everything
// else.
package gfx

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/edrefis/edrefis/gfx/shaders"
)

// ErrNoSurface is returned when there is nothing to draw into.
var ErrNoSurface = errors.New("gfx: no surface")

type releaser interface {
	Release()
}

// State owns the device, both pipelines and the frame being recorded.
// A frame is BeginFrame, one or more render passes, then Present.
type State struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	quadPipeline *wgpu.RenderPipeline
	tilePipeline *wgpu.RenderPipeline
	tileCorners  *wgpu.Buffer
	tileIndices  *wgpu.Buffer
	white        *Texture

	frame     *wgpu.Texture
	frameView *wgpu.TextureView
	encoder   *wgpu.CommandEncoder
	pass      *wgpu.RenderPassEncoder

	camera  Camera
	texture *Texture
	batch   Batch

	// released once the frame has been submitted
	garbage []releaser
}

// NewState opens a device for the surface described by desc and builds
// the pipelines for a width by height target.
func NewState(desc *wgpu.SurfaceDescriptor, width, height int) (s *State, err error) {
	if desc == nil {
		return nil, ErrNoSurface
	}

	s = &State{}
	defer func() {
		if err != nil {
			s.Release()
			s = nil
		}
	}()

	s.instance = wgpu.CreateInstance(nil)
	s.surface = s.instance.CreateSurface(desc)
	if s.surface == nil {
		return nil, ErrNoSurface
	}

	s.adapter, err = s.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: s.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	s.device, err = s.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	s.queue = s.device.GetQueue()

	caps := s.surface.GetCapabilities(s.adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return nil, ErrNoSurface
	}
	s.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	s.surface.Configure(s.adapter, s.device, s.config)

	s.quadPipeline, err = createRenderPipeline(s.device, "Quad", shaders.Quad, s.config.Format, alphaBlend,
		vertexBufferLayout(Vertex{}, wgpu.VertexStepModeVertex))
	if err != nil {
		return nil, err
	}
	s.tilePipeline, err = createRenderPipeline(s.device, "Tiles", shaders.Tiles, s.config.Format, nil,
		vertexBufferLayout(tileCorner{}, wgpu.VertexStepModeVertex),
		vertexBufferLayout(TileInstance{}, wgpu.VertexStepModeInstance))
	if err != nil {
		return nil, err
	}

	s.tileCorners, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Tile Corners",
		Contents: wgpu.ToBytes(tileCorners),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("tile corners: %w", err)
	}
	s.tileIndices, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Tile Indices",
		Contents: wgpu.ToBytes(tileIndices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("tile indices: %w", err)
	}

	white := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	white.Pix = []byte{255, 255, 255, 255}
	s.white, err = s.UploadImage(white, wgpu.FilterModeNearest)
	if err != nil {
		return nil, err
	}
	s.texture = s.white
	s.camera = Camera2DFromRect(0, 0, float32(s.config.Width), float32(s.config.Height))

	return s, nil
}

func (s *State) Size() (float32, float32) {
	return float32(s.config.Width), float32(s.config.Height)
}

// Resize reconfigures the surface. Zero sizes, as sent while a window is
// minimised, are ignored.
func (s *State) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if uint32(width) == s.config.Width && uint32(height) == s.config.Height {
		return
	}
	s.config.Width = uint32(width)
	s.config.Height = uint32(height)
	s.surface.Configure(s.adapter, s.device, s.config)
}

// Reconfigure applies the current configuration again, as needed after
// BeginFrame failed with ErrNoSurface.
func (s *State) Reconfigure() {
	s.surface.Configure(s.adapter, s.device, s.config)
}

// BeginFrame acquires the next surface texture and a command encoder.
func (s *State) BeginFrame() error {
	if s.encoder != nil {
		return errors.New("gfx: frame already started")
	}
	frame, err := s.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoSurface, err)
	}
	view, err := frame.CreateView(nil)
	if err != nil {
		frame.Release()
		return fmt.Errorf("frame view: %w", err)
	}
	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		frame.Release()
		return fmt.Errorf("command encoder: %w", err)
	}
	s.frame, s.frameView, s.encoder = frame, view, encoder
	return nil
}

// StartRenderPass opens a pass over the frame, clearing it to clearColor when
// given and keeping the previous contents otherwise.
func (s *State) StartRenderPass(clearColor *Color) error {
	if s.encoder == nil {
		return errors.New("gfx: render pass outside of a frame")
	}
	if s.pass != nil {
		if err := s.CompleteRenderPass(); err != nil {
			return err
		}
	}
	attachment := wgpu.RenderPassColorAttachment{
		View:    s.frameView,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if clearColor != nil {
		attachment.LoadOp = wgpu.LoadOpClear
		attachment.ClearValue = clearColor.Wgpu()
	}
	s.pass = s.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	return nil
}

// SetCamera flushes queued quads and switches the projection.
func (s *State) SetCamera(c Camera) error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.camera = c
	return nil
}

// SetTexture selects the texture for subsequently queued quads; nil means
// the plain white texture.
func (s *State) SetTexture(t *Texture) error {
	if t == nil {
		t = s.white
	}
	if t == s.texture {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	s.texture = t
	return nil
}

// Queue adds quads to the pending batch.
func (s *State) Queue(quads ...Quad) error {
	for _, q := range quads {
		if s.batch.Full() {
			if err := s.Flush(); err != nil {
				return err
			}
		}
		s.batch.Add(q)
	}
	return nil
}

func (s *State) uniformBindGroup(label string, pipeline *wgpu.RenderPipeline, group uint32) (*wgpu.BindGroup, error) {
	w, h := s.Size()
	m := s.camera.Matrix(w, h)
	buf, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(m[:]),
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	s.garbage = append(s.garbage, buf)

	layout := pipeline.GetBindGroupLayout(group)
	defer layout.Release()
	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s bind group: %w", label, err)
	}
	s.garbage = append(s.garbage, bg)
	return bg, nil
}

// Flush draws the pending batch with the current camera and texture.
func (s *State) Flush() error {
	if s.batch.Len() == 0 {
		return nil
	}
	if s.pass == nil {
		s.batch.Reset()
		return errors.New("gfx: draw outside of a render pass")
	}
	defer s.batch.Reset()

	matrix, err := s.uniformBindGroup("Quad Matrix", s.quadPipeline, 1)
	if err != nil {
		return err
	}
	vertices, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Vertices",
		Contents: wgpu.ToBytes(s.batch.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("quad vertices: %w", err)
	}
	s.garbage = append(s.garbage, vertices)
	indices, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Indices",
		Contents: wgpu.ToBytes(s.batch.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return fmt.Errorf("quad indices: %w", err)
	}
	s.garbage = append(s.garbage, indices)

	s.pass.SetPipeline(s.quadPipeline)
	s.pass.SetBindGroup(0, s.texture.bindGroup, nil)
	s.pass.SetBindGroup(1, matrix, nil)
	s.pass.SetVertexBuffer(0, vertices, 0, wgpu.WholeSize)
	s.pass.SetIndexBuffer(indices, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	s.pass.DrawIndexed(uint32(s.batch.Len()), 1, 0, 0, 0)
	return nil
}

// DrawTiles draws the tiles in one instanced call after anything queued.
func (s *State) DrawTiles(tiles []TileInstance) error {
	if err := s.Flush(); err != nil {
		return err
	}
	if len(tiles) == 0 {
		return nil
	}
	if s.pass == nil {
		return errors.New("gfx: draw outside of a render pass")
	}

	camera, err := s.uniformBindGroup("Tile Camera", s.tilePipeline, 0)
	if err != nil {
		return err
	}
	instances, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Tile Instances",
		Contents: wgpu.ToBytes(tiles),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("tile instances: %w", err)
	}
	s.garbage = append(s.garbage, instances)

	s.pass.SetPipeline(s.tilePipeline)
	s.pass.SetBindGroup(0, camera, nil)
	s.pass.SetVertexBuffer(0, s.tileCorners, 0, wgpu.WholeSize)
	s.pass.SetVertexBuffer(1, instances, 0, wgpu.WholeSize)
	s.pass.SetIndexBuffer(s.tileIndices, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	s.pass.DrawIndexed(uint32(len(tileIndices)), uint32(len(tiles)), 0, 0, 0)
	return nil
}

// CompleteRenderPass flushes and ends the open pass.
func (s *State) CompleteRenderPass() error {
	if s.pass == nil {
		return nil
	}
	flushErr := s.Flush()
	err := s.pass.End()
	s.pass.Release()
	s.pass = nil
	if err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	return flushErr
}

// Present submits the frame and releases everything created for it.
func (s *State) Present() error {
	if s.encoder == nil {
		return errors.New("gfx: present without a frame")
	}
	defer s.endFrame()

	if err := s.CompleteRenderPass(); err != nil {
		return err
	}
	cmd, err := s.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish commands: %w", err)
	}
	defer cmd.Release()
	s.queue.Submit(cmd)
	s.surface.Present()
	return nil
}

func (s *State) endFrame() {
	if s.pass != nil {
		s.pass.Release()
		s.pass = nil
	}
	for _, g := range s.garbage {
		g.Release()
	}
	s.garbage = s.garbage[:0]
	s.batch.Reset()

	s.encoder.Release()
	s.frameView.Release()
	s.frame.Release()
	s.encoder, s.frameView, s.frame = nil, nil, nil
}

// UploadImage copies img to a new texture usable with SetTexture.
func (s *State) UploadImage(img image.Image, filter wgpu.FilterMode) (*Texture, error) {
	layout := s.quadPipeline.GetBindGroupLayout(0)
	defer layout.Release()
	return createTexture(s.device, s.queue, layout, "Image", img, filter)
}

func (s *State) Release() {
	if s == nil {
		return
	}
	if s.encoder != nil {
		s.endFrame()
	}
	if s.white != nil {
		s.white.Release()
	}
	if s.tileIndices != nil {
		s.tileIndices.Release()
	}
	if s.tileCorners != nil {
		s.tileCorners.Release()
	}
	if s.tilePipeline != nil {
		s.tilePipeline.Release()
	}
	if s.quadPipeline != nil {
		s.quadPipeline.Release()
	}
	if s.device != nil {
		s.device.Release()
	}
	if s.adapter != nil {
		s.adapter.Release()
	}
	if s.surface != nil {
		s.surface.Release()
	}
	if s.instance != nil {
		s.instance.Release()
	}
}
