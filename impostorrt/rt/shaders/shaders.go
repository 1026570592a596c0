package shaders

import (
	_ "embed"
)

//go:embed impostor.wgsl
var ImpostorWGSL string
