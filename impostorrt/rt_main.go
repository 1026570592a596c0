package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/impostor"
	"github.com/gekko3d/impostor/impostorrt/rt/app"
	"github.com/gekko3d/impostor/impostorrt/rt/raster"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML bake/material/scene config (defaults when empty)")
	outDir := flag.String("out", "", "Write <name>_color.png and <name>_normal.png to this directory")
	view := flag.Bool("view", false, "Open the viewer with a field of impostors")
	debug := flag.Bool("debug", false, "Enable debug logging (per-cell bake timings, frame stats)")
	flag.Parse()

	logger := impostor.NewDefaultLogger("impostor", *debug)
	if err := run(*configPath, *outDir, *view, *debug, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(configPath, outDir string, view, debug bool, logger impostor.Logger) error {
	cfg := impostor.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = impostor.LoadConfig(configPath); err != nil {
			return err
		}
	}

	scene, err := impostor.BuildScene(cfg.Scene)
	if err != nil {
		return err
	}

	prof := app.NewProfiler()
	im, err := impostor.NewWithProfiler(raster.NewRenderer(), scene, cfg, logger, prof)
	if err != nil {
		return err
	}
	defer im.Release()
	logger.Debugf("bake stats\n%s", prof.GetStatsString())

	if outDir != "" {
		colorPath, normalPath, err := im.Atlas().SaveFiles(outDir, cfg.Name)
		if err != nil {
			return err
		}
		logger.Infof("wrote %s and %s", colorPath, normalPath)
	}

	if !view {
		return nil
	}
	return runViewer(im, cfg.Viewer, debug, logger)
}

func runViewer(im *impostor.Impostor, cfg impostor.ViewerConfig, debug bool, logger impostor.Logger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, "Impostor Viewer", nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application := app.NewApp(window, im, cfg, logger)
	application.DebugMode = debug
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !application.MouseCaptured {
			return
		}
		width, height := w.GetSize()
		w.SetCursorPos(application.MouseLook(xpos, ypos, width, height))
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.MouseCaptured = !application.MouseCaptured
			if application.MouseCaptured {
				w.SetCursorPos(windowCenter(w))
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyR:
			if err := application.Regenerate(); err != nil {
				logger.Errorf("regenerate: %v", err)
			}
		case glfw.KeyB:
			m := im.State()
			if err := setBlend(im, !m.BlendEnabled); err != nil {
				logger.Errorf("toggle blend: %v", err)
			}
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}

func setBlend(im *impostor.Impostor, on bool) error {
	m := im.Material()
	m.Blend = on
	return im.SetMaterial(m)
}

// windowCenter is in screen coordinates, which is what cursor callbacks
// report, and follows resizes.
func windowCenter(w *glfw.Window) (float64, float64) {
	width, height := w.GetSize()
	return float64(width) / 2, float64(height) / 2
}
