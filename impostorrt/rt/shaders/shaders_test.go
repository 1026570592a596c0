package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImpostorShaderEmbedded(t *testing.T) {
	assert.NotEmpty(t, ImpostorWGSL)
	for _, want := range []string{
		"fn vs_main", "fn fs_main",
		"@binding(0) var<uniform> params", "@binding(3) var atlas_sampler",
		"@location(6) weights", "@location(7) rotation",
		"quat_rotate(in.rotation",
	} {
		assert.True(t, strings.Contains(ImpostorWGSL, want), "missing %q", want)
	}
	// Non-uniform control flow rules out implicit-derivative sampling.
	assert.NotContains(t, ImpostorWGSL, "textureSample(")
}
