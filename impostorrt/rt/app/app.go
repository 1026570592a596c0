package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor"
	"github.com/gekko3d/impostor/impostorrt/rt/core"
	"github.com/gekko3d/impostor/impostorrt/rt/gpu"
)

// App draws a field of copies of one impostor with a fly camera.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Pass   *gpu.ImpostorRenderPass
	Atlas  *gpu.AtlasTextures
	Camera *core.CameraState

	Impostor   *impostor.Impostor
	Placements []mgl32.Mat4
	Workers    int
	Profiler   *Profiler
	Logger     impostor.Logger

	instances []gpu.ImpostorInstance

	LastTime       float64
	LastRenderTime float64
	MouseCaptured  bool
	DebugMode      bool

	FrameCount int
	FPS        float64
	FPSTime    float64
}

func NewApp(window *glfw.Window, im *impostor.Impostor, cfg impostor.ViewerConfig, logger impostor.Logger) *App {
	cam := core.NewCameraState()
	extent := float32(cfg.Grid) * cfg.Spacing / 2
	cam.Position = mgl32.Vec3{0, 2, extent + 10}
	if img := im.Atlas(); img != nil {
		// Eye just above the object's top.
		cam.Position[1] = img.Box[1].Y() + 1
	}
	if logger == nil {
		logger = impostor.NewNopLogger()
	}
	return &App{
		Window:     window,
		Camera:     cam,
		Impostor:   im,
		Placements: impostor.GridPlacements(cfg.Grid, cfg.Spacing),
		Workers:    cfg.Workers,
		Profiler:   NewProfiler(),
		Logger:     logger,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.Pass, err = gpu.NewImpostorRenderPass(a.Device, format)
	if err != nil {
		return fmt.Errorf("impostor pass: %w", err)
	}
	return a.uploadAtlas()
}

// uploadAtlas pushes the current atlas to the GPU and ties the textures to
// it, so Regenerate frees them.
func (a *App) uploadAtlas() error {
	img := a.Impostor.Atlas()
	if img == nil {
		return impostor.ErrReleased
	}
	tex, err := gpu.UploadAtlas(a.Device, img)
	if err != nil {
		return err
	}
	if err := a.Impostor.Attach(tex); err != nil {
		return err
	}
	a.Atlas = tex
	return a.Pass.SetAtlas(tex)
}

// Regenerate re-bakes the impostor and re-uploads its atlas.
func (a *App) Regenerate() error {
	a.Profiler.BeginScope("regenerate")
	defer a.Profiler.EndScope("regenerate")

	// Regenerate releases the attached textures; drop the bind group that
	// points at them so a failed bake draws nothing.
	a.Pass.ClearAtlas()
	a.Atlas = nil
	if err := a.Impostor.Regenerate(); err != nil {
		return err
	}
	return a.uploadAtlas()
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// MouseLook turns the camera by the cursor offset from the centre of a
// width x height window and returns that centre for re-centring.
func (a *App) MouseLook(xpos, ypos float64, width, height int) (float64, float64) {
	cx, cy := float64(width)/2, float64(height)/2
	a.Camera.Yaw += float32(xpos-cx) * a.Camera.Sensitivity
	a.Camera.Pitch -= float32(ypos-cy) * a.Camera.Sensitivity
	a.Camera.ClampPitch()
	return cx, cy
}

func (a *App) handleMovement(dt float32) {
	step := a.Camera.Speed * dt
	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		step *= 4
	}
	fwd, right := a.Camera.GetForward(), a.Camera.GetRight()
	if a.Window.GetKey(glfw.KeyW) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Add(fwd.Mul(step))
	}
	if a.Window.GetKey(glfw.KeyS) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Sub(fwd.Mul(step))
	}
	if a.Window.GetKey(glfw.KeyD) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Add(right.Mul(step))
	}
	if a.Window.GetKey(glfw.KeyA) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Sub(right.Mul(step))
	}
	if a.Window.GetKey(glfw.KeyE) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Add(core.WorldUp.Mul(step))
	}
	if a.Window.GetKey(glfw.KeyQ) == glfw.Press {
		a.Camera.Position = a.Camera.Position.Sub(core.WorldUp.Mul(step))
	}
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(0)
	if a.LastTime > 0 {
		dt = float32(now - a.LastTime)
	}
	a.LastTime = now
	a.handleMovement(dt)
	a.Camera.ClampPitch()

	view := a.Camera.GetViewMatrix()
	aspect := float32(a.Config.Width) / float32(a.Config.Height)
	if aspect == 0 {
		aspect = 1.0
	}
	proj := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 1000.0)
	viewProj := proj.Mul4(view)

	a.Profiler.BeginScope("vertex")
	items := a.Impostor.Batch(a.Placements, a.Camera.Position, a.Workers)
	a.Profiler.EndScope("vertex")

	a.Profiler.BeginScope("cull+sort")
	planes := core.ExtractFrustum(viewProj)
	visible := items[:0]
	for _, it := range items {
		if core.SphereInFrustum(core.Sphere{Center: it.Center, Radius: it.HalfSize * 1.4143}, planes) {
			visible = append(visible, it)
		}
	}
	impostor.SortBackToFront(visible)
	a.instances = a.instances[:0]
	for _, it := range visible {
		a.instances = append(a.instances, gpu.NewInstance(it.Center, it.HalfSize, it.Rotation, it.Vertex))
	}
	a.Profiler.EndScope("cull+sort")
	a.Profiler.SetCount("impostors", len(a.instances))
	a.Profiler.SetCount("culled", len(items)-len(visible))

	a.Pass.Update(a.Queue, viewProj, a.Impostor.State(), a.instances)
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.45, G: 0.6, B: 0.8, A: 1},
		}},
	})
	a.Pass.Draw(rPass)
	if err := rPass.End(); err != nil {
		a.Logger.Errorf("Render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Logger.Errorf("Encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			if a.DebugMode {
				a.Logger.Debugf("FPS %.1f\n%s", a.FPS, a.Profiler.GetStatsString())
			}
		}
	}
	a.LastRenderTime = now
}

// Release frees GPU objects. The impostor itself stays owned by the caller.
func (a *App) Release() {
	if a.Pass != nil {
		a.Pass.Release()
		a.Pass = nil
	}
	a.Atlas = nil
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
