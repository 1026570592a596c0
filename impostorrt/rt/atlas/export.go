package atlas

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// WritePNG encodes the color buffer to cw and the normal-depth buffer to nw.
// The normal-depth PNG keeps 16 bits per channel.
func (a *Image) WritePNG(cw, nw io.Writer) error {
	if a.Released() {
		return ErrReleased
	}
	if err := png.Encode(cw, a.Color); err != nil {
		return fmt.Errorf("encode color: %w", err)
	}
	if err := png.Encode(nw, a.NormalDepth); err != nil {
		return fmt.Errorf("encode normal-depth: %w", err)
	}
	return nil
}

// SaveFiles writes <name>_color.png and <name>_normal.png into dir and
// returns both paths.
func (a *Image) SaveFiles(dir, name string) (string, string, error) {
	if a.Released() {
		return "", "", ErrReleased
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	colorPath := filepath.Join(dir, name+"_color.png")
	normalPath := filepath.Join(dir, name+"_normal.png")

	cf, err := os.Create(colorPath)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", colorPath, err)
	}
	defer cf.Close()
	nf, err := os.Create(normalPath)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", normalPath, err)
	}
	defer nf.Close()

	if err := a.WritePNG(cf, nf); err != nil {
		return "", "", err
	}
	return colorPath, normalPath, nil
}
