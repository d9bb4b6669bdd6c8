package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// focusSpeed is the focus movement speed in world units per second.
const focusSpeed = 150.0

// handleInput processes keyboard and mouse input in graphical mode.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Speed control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerFrame > 1 {
		g.stepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerFrame < 10 {
		g.stepsPerFrame++
	}

	// WASD drives the focus
	vel := g.velMap.Get(g.focus)
	if vel != nil {
		vel.X, vel.Y = 0, 0
		if rl.IsKeyDown(rl.KeyA) {
			vel.X -= focusSpeed
		}
		if rl.IsKeyDown(rl.KeyD) {
			vel.X += focusSpeed
		}
		if rl.IsKeyDown(rl.KeyW) {
			vel.Y -= focusSpeed
		}
		if rl.IsKeyDown(rl.KeyS) {
			vel.Y += focusSpeed
		}
	}

	// Mouse wheel zoom
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.cam.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.cam.Reset()
	}

	// Click deposits a test cloud under the cursor
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && len(g.spawnCompounds) > 0 {
		mouse := rl.GetMousePosition()
		wx, wy := g.cam.ScreenToWorld(mouse.X, mouse.Y)
		compound := g.spawnCompounds[g.rng.Intn(len(g.spawnCompounds))]
		g.Deposit(compound, 8000, wx, wy)
	}
}
