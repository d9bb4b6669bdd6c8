package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/broth/systems"
)

// Draw renders the current frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.drawClouds()
	g.drawFocus()
	g.drawHUD()

	rl.EndDrawing()
}

// drawClouds draws every visible cloud tile texture in world space.
func (g *Game) drawClouds() {
	query := g.cloudFilter.Query()
	for query.Next() {
		pos, sprite := query.Get()
		if !g.cam.IsVisible(pos.X, pos.Y, systems.CloudHalfWidth*1.5) {
			continue
		}
		sx, sy := g.cam.WorldToScreen(pos.X-systems.CloudHalfWidth, pos.Y-systems.CloudHalfHeight)
		g.clouds.DrawTile(sprite.Texture, sx, sy, g.cam.Zoom)
	}
}

// drawFocus marks the focus position.
func (g *Game) drawFocus() {
	pos := g.posMap.Get(g.focus)
	if pos == nil {
		return
	}
	sx, sy := g.cam.WorldToScreen(pos.X, pos.Y)
	rl.DrawCircleLines(int32(sx), int32(sy), 6, rl.White)
}

// drawHUD draws the overlay text.
func (g *Game) drawHUD() {
	pos := g.posMap.Get(g.focus)

	rl.DrawText(fmt.Sprintf("Tick: %d", g.tick), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Tiles: %d", g.grid.TileCount()), 10, 35, 20, rl.White)
	if pos != nil {
		rl.DrawText(fmt.Sprintf("Focus: (%.0f, %.0f)", pos.X, pos.Y), 10, 60, 20, rl.White)
	}
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]", g.stepsPerFrame), 10, 85, 20, rl.White)
	if g.paused {
		rl.DrawText("PAUSED", 10, 110, 20, rl.Yellow)
	}
}
