// Package renderer draws simulation state with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/broth/systems"
)

// CloudRenderer draws compound cloud tiles as camera-space textures.
// Each tile gets one GPU texture, keyed by the texture id carried on the
// tile's sprite entity; the texture survives tile recycling because the
// tile's storage does too.
type CloudRenderer struct {
	textures map[int32]rl.Texture2D

	// scratch buffers reused across tiles
	intensity []uint8
	pixels    []color.RGBA

	colors map[systems.CompoundID][3]float32
}

// NewCloudRenderer creates a renderer with the compound color catalog.
func NewCloudRenderer(registry *systems.CompoundRegistry) *CloudRenderer {
	colors := make(map[systems.CompoundID][3]float32)
	for _, c := range registry.All() {
		colors[c.ID] = c.Color
	}
	return &CloudRenderer{
		textures:  make(map[int32]rl.Texture2D),
		intensity: make([]uint8, systems.SimWidth*systems.SimHeight),
		pixels:    make([]color.RGBA, systems.SimWidth*systems.SimHeight),
		colors:    colors,
	}
}

// ensureTexture returns the texture for a texture id, creating it on
// first use. Must be called after the raylib window exists.
func (r *CloudRenderer) ensureTexture(texID int32) rl.Texture2D {
	if tex, ok := r.textures[texID]; ok {
		return tex
	}
	img := rl.GenImageColor(systems.SimWidth, systems.SimHeight, rl.Blank)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(tex, rl.FilterBilinear)
	r.textures[texID] = tex
	return tex
}

// UpdateTile composites the tile's compound slots into RGBA and uploads
// the result. Later slots with denser cells win the pixel; alpha comes
// from the arctangent intensity transfer.
func (r *CloudRenderer) UpdateTile(texID int32, t *systems.CloudTile) {
	for i := range r.pixels {
		r.pixels[i] = color.RGBA{}
	}

	for slot := 0; slot < systems.CloudsInOne; slot++ {
		id := t.Slots[slot].ID
		if id == systems.NullCompound {
			continue
		}
		col := r.colors[id]
		t.FillIntensity(slot, r.intensity)

		// density buffers are x-major, textures row-major
		for y := 0; y < systems.SimHeight; y++ {
			for x := 0; x < systems.SimWidth; x++ {
				a := r.intensity[x*systems.SimHeight+y]
				if a == 0 {
					continue
				}
				p := &r.pixels[y*systems.SimWidth+x]
				if a > p.A {
					p.R = uint8(col[0] * 255)
					p.G = uint8(col[1] * 255)
					p.B = uint8(col[2] * 255)
					p.A = a
				}
			}
		}
	}

	rl.UpdateTexture(r.ensureTexture(texID), r.pixels)
}

// DrawTile draws a tile's texture at its world-space footprint.
// (screenX, screenY) is the screen position of the tile's top-left
// corner and scale is the camera zoom.
func (r *CloudRenderer) DrawTile(texID int32, screenX, screenY, scale float32) {
	tex, ok := r.textures[texID]
	if !ok {
		return
	}

	src := rl.Rectangle{Width: float32(tex.Width), Height: float32(tex.Height)}
	dst := rl.Rectangle{
		X:      screenX,
		Y:      screenY,
		Width:  systems.CloudXExtent * scale,
		Height: systems.CloudYExtent * scale,
	}
	rl.DrawTexturePro(tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// ReleaseTexture unloads one tile texture.
func (r *CloudRenderer) ReleaseTexture(texID int32) {
	if tex, ok := r.textures[texID]; ok {
		rl.UnloadTexture(tex)
		delete(r.textures, texID)
	}
}

// Unload frees all GPU resources.
func (r *CloudRenderer) Unload() {
	for id, tex := range r.textures {
		rl.UnloadTexture(tex)
		delete(r.textures, id)
	}
}
