package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/impostor/impostorrt/rt/core"
)

func TestMouseLookUsesCurrentWindowSize(t *testing.T) {
	a := &App{Camera: core.NewCameraState()}
	a.Camera.Sensitivity = 0.01

	// Window grew from 1280x720: the new centre must not turn the camera.
	cx, cy := a.MouseLook(800, 450, 1600, 900)
	assert.Equal(t, 800.0, cx)
	assert.Equal(t, 450.0, cy)
	assert.Zero(t, a.Camera.Yaw)
	assert.Zero(t, a.Camera.Pitch)

	a.MouseLook(810, 440, 1600, 900)
	assert.InDelta(t, 0.1, a.Camera.Yaw, 1e-6)
	assert.InDelta(t, 0.1, a.Camera.Pitch, 1e-6)
}

func TestMouseLookClampsPitch(t *testing.T) {
	a := &App{Camera: core.NewCameraState()}
	a.MouseLook(0, -1e6, 100, 100)
	assert.Less(t, a.Camera.Pitch, float32(1.5708))
}
