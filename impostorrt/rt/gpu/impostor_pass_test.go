package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawSkippedWithoutAtlas(t *testing.T) {
	p := &ImpostorRenderPass{InstanceCount: 3}
	p.ClearAtlas()
	assert.False(t, p.Ready())
	// A nil encoder would crash if Draw got past the guard.
	assert.NotPanics(t, func() { p.Draw(nil) })
}

func TestReleasedPassDrawsNothing(t *testing.T) {
	p := &ImpostorRenderPass{InstanceCount: 1}
	p.Release()
	p.ClearAtlas()
	assert.Nil(t, p.BindGroup)
	assert.False(t, p.Ready())
	assert.NotPanics(t, func() { p.Draw(nil) })
}
