package core

import (
	"image"
)

// RenderTarget is an offscreen target with a color attachment and a
// normal+depth attachment of equal size.
type RenderTarget interface {
	Size() (w, h int)
	// ReadBack copies both attachments out of the target.
	ReadBack() (color *image.NRGBA, normalDepth *image.NRGBA64, err error)
	Release()
}

// RenderState is the renderer state the baker touches and must put back.
type RenderState struct {
	Target      RenderTarget
	PixelRatio  float32
	Viewport    image.Rectangle
	Scissor     image.Rectangle
	ScissorTest bool
	ClearAlpha  float32
}

// Renderer draws a node hierarchy into a sub-rectangle of a render target.
// Viewport and scissor rectangles are in target pixels before PixelRatio.
type Renderer interface {
	State() RenderState
	Restore(s RenderState)

	CreateTarget(w, h int) (RenderTarget, error)
	SetRenderTarget(t RenderTarget)
	SetPixelRatio(ratio float32)
	SetViewport(r image.Rectangle)
	SetScissor(r image.Rectangle)
	SetScissorTest(enabled bool)
	SetClearAlpha(alpha float32)

	// Clear resets color, normal-depth and depth inside the scissor rectangle
	// when the scissor test is on, or the whole target otherwise.
	Clear()
	Render(root *Node, cam *Camera) error
}
