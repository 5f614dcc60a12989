package edrefis

import (
	"errors"
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/edrefis/edrefis/gfx"
)

// ErrRendererNotReady is returned by frames drawn before InitRenderer.
var ErrRendererNotReady = errors.New("renderer not initialised")

// Renderer draws the local board, then the remote boards to its right.
type Renderer struct {
	state       *gfx.State
	font        *gfx.Font
	fontTexture *gfx.Texture
	scene       scene
	drawing     bool

	effects *Effects
	remotes *Remotes
	log     Logger

	showPerf bool
	perf     frameTimes
}

// frameTimes keeps the durations of the most recent frames.
type frameTimes struct {
	samples [120]time.Duration
	next    int
	count   int
}

func (f *frameTimes) add(d time.Duration) {
	f.samples[f.next] = d
	f.next = (f.next + 1) % len(f.samples)
	f.count = min(f.count+1, len(f.samples))
}

func (f *frameTimes) fps() float64 {
	var total time.Duration
	for _, d := range f.samples[:f.count] {
		total += d
	}
	if total <= 0 {
		return 0
	}
	return float64(f.count) / total.Seconds()
}

type RendererModule struct {
	// FontSize is the glyph atlas size in pixels; text is scaled from it.
	FontSize float64
	ShowPerf bool
}

const defaultFontSize = 48

// Install expects the surface, game and, when used, effects and net
// modules to be installed first. The GPU state is not created here; the
// host calls InitRenderer before the first frame.
func (mod RendererModule) Install(app *App, cmd *Commands) {
	MustResource[Surface](app)
	MustResource[Game](app)

	size := mod.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	font, err := gfx.NewFont(size)
	if err != nil {
		panic(fmt.Sprintf("renderer font: %v", err))
	}

	r := &Renderer{
		font:     font,
		log:      app.Logger(),
		showPerf: mod.ShowPerf,
	}
	r.effects, _ = Resource[Effects](app)
	r.remotes, _ = Resource[Remotes](app)

	cmd.AddResources(r)
	cmd.UseSystem(System(renderBeginSystem).InStage(PreRender))
	cmd.UseSystem(System(renderSceneSystem).InStage(Render))
	cmd.UseSystem(System(renderPresentSystem).InStage(PostRender))
	cmd.UseSystem(System(renderReleaseSystem).InState(OnExit(StatePlaying)).InStage(Finale))
}

// InitRenderer opens the GPU device and builds the pipelines. It blocks
// until the device is ready: on js/wasm it waits on browser promises, so it
// must run on the main goroutine before any frame callback is installed,
// never from inside one.
func InitRenderer(app *App) error {
	r := MustResource[Renderer](app)
	if r.state != nil {
		return nil
	}
	return r.init(MustResource[Surface](app))
}

// Ready reports whether InitRenderer succeeded.
func (r *Renderer) Ready() bool {
	return r.state != nil
}

func (r *Renderer) init(surface *Surface) error {
	state, err := gfx.NewState(surface.Descriptor, surface.Width, surface.Height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	tex, err := state.UploadImage(r.font.AtlasImage(), wgpu.FilterModeLinear)
	if err != nil {
		state.Release()
		return fmt.Errorf("upload glyph atlas: %w", err)
	}
	r.state = state
	r.fontTexture = tex
	surface.TakeResize()
	r.log.Infof("renderer ready (%dx%d)", surface.Width, surface.Height)
	return nil
}

func (r *Renderer) release() {
	if r.fontTexture != nil {
		r.fontTexture.Release()
		r.fontTexture = nil
	}
	r.state.Release()
	r.state = nil
}

func renderBeginSystem(r *Renderer, surface *Surface) error {
	r.drawing = false
	if r.state == nil {
		return ErrRendererNotReady
	}
	if surface.TakeResize() {
		r.state.Resize(surface.Width, surface.Height)
	}
	if err := r.state.BeginFrame(); err != nil {
		if errors.Is(err, gfx.ErrNoSurface) {
			// outdated or lost, try again next frame
			r.log.Debugf("skipping frame: %v", err)
			r.state.Reconfigure()
			return nil
		}
		return err
	}
	r.drawing = true
	return r.state.StartRenderPass(&clearColor)
}

func renderSceneSystem(r *Renderer, game *Game, t *Time) error {
	if !r.drawing {
		return nil
	}
	r.perf.add(t.Dt)

	s := &r.scene
	s.reset()
	var cubes []Cube
	if r.effects != nil {
		cubes = r.effects.Cubes
	}
	s.addBoard(game.Field, cubes, "")
	if r.remotes != nil {
		for _, b := range r.remotes.Boards {
			s.addBoard(b.Field, nil, b.Name())
		}
	}

	w, h := r.state.Size()
	world := s.camera(w, h)
	if err := r.state.SetCamera(world); err != nil {
		return err
	}
	if err := r.state.SetTexture(nil); err != nil {
		return err
	}
	if err := r.state.Queue(s.backgrounds...); err != nil {
		return err
	}
	if err := r.state.DrawTiles(s.tiles); err != nil {
		return err
	}
	if err := r.state.Queue(s.overlays...); err != nil {
		return err
	}
	if len(s.cubes) > 0 {
		if err := r.state.SetCamera(cubeCamera(world)); err != nil {
			return err
		}
		if err := r.state.Queue(s.cubes...); err != nil {
			return err
		}
	}

	// text is laid out in pixels
	if err := r.state.SetCamera(gfx.Camera2DFromRect(0, 0, w, h)); err != nil {
		return err
	}
	if err := r.state.SetTexture(r.fontTexture); err != nil {
		return err
	}
	pixelsPerUnit := w * world.Zoom.X() / 2
	for _, l := range s.labels {
		at := gfx.WorldToView(world, w, h, mgl32.Vec3{l.pos.X(), l.pos.Y(), 0})
		scale := l.size * pixelsPerUnit / r.font.LineHeight(1)
		if err := r.state.Queue(r.font.Layout(l.text, at.X(), at.Y(), scale, l.color)...); err != nil {
			return err
		}
	}
	if r.showPerf {
		text := fmt.Sprintf("%.1f fps\n%d ticks", r.perf.fps(), t.Ticks)
		if err := r.state.Queue(r.font.Layout(text, 8, 8, 16/r.font.LineHeight(1), hudDimColor)...); err != nil {
			return err
		}
	}
	return r.state.Flush()
}

func renderPresentSystem(r *Renderer) error {
	if !r.drawing {
		return nil
	}
	r.drawing = false
	return r.state.Present()
}

func renderReleaseSystem(r *Renderer) {
	if r.state != nil {
		r.release()
	}
}
