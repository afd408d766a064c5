package client

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mkarren/voidbelt/internal/draw"
	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/loop/server"
	"github.com/mkarren/voidbelt/internal/object"
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On game state or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()

	// Get world snapshot
	snapshot := c.server.GetSnapshot()

	// Environment layers go into the canvas first so ships and rocks draw
	// over them. Render errors only happen while the server is tearing
	// down; the shutdown screen takes over from there.
	if c.state.GameState != GameStateShutdown {
		pos := env.Vec2{X: c.state.Camera.X, Y: c.state.Camera.Y}
		if c.state.Player != nil {
			px, py := c.state.Player.GetPosition()
			pos = env.Vec2{X: px, Y: py}
		}
		target := env.RenderTarget{Canvas: c.canvas, Writer: c.chunkWriter}
		cam := env.Camera{X: c.state.Camera.X, Y: c.state.Camera.Y}
		_ = c.server.RenderEnv(target, cam, pos)
	}

	// Create draw context
	ctx := object.DrawContext{
		Canvas: c.canvas,
		Writer: c.chunkWriter,
		Camera: c.state.Camera,
		View:   c.state.View,
		World:  snapshot.World,
	}

	// Draw all objects from snapshot. Floating labels are terminal text, so
	// they wait until after the canvas has been rendered.
	c.labelBuf = c.labelBuf[:0]
	for _, obj := range snapshot.Objects {
		if label, ok := obj.(*object.Label); ok {
			c.labelBuf = append(c.labelBuf, label)
			continue
		}
		// Skip drawing player when blinking (invincible)
		if obj == c.state.Player && !object.ShouldRenderBlink(c.state.InvincibleTime, config.PlayerBlinkFrequency) {
			continue
		}
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	// Draw usernames above other players' ships
	c.drawPlayerNames(snapshot.UserObjects, snapshot.World)

	// Floating score labels sit on top of the canvas
	for _, label := range c.labelBuf {
		if err := label.Draw(ctx); err != nil {
			return err
		}
	}

	// Draw UI overlay
	c.drawUI(snapshot)

	return c.chunkWriter.Flush()
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI(snapshot *server.WorldSnapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight, snapshot)
	case GameStateStart:
		c.drawStartScreen(centerX, centerY)
	case GameStateDead:
		c.drawDeadScreen(centerX, centerY, snapshot)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "INACTIVITY WARNING"
	cw.WriteAt(centerX-len(title)/2, centerY-2, title)

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	cw.WriteAt(centerX-len(msg)/2, centerY, msg)

	hint := "Press any key to continue"
	cw.WriteAt(centerX-len(hint)/2, centerY+2, hint)
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerX, centerY int) {
	// ASCII art title (figlet "small" font)
	titleArt := []string{
		`__   __  ___   ___  ___   ___  ___  _     _____ `,
		`\ \ / / / _ \ |_ _||   \ | _ )| __|| |   |_   _|`,
		` \ V / | (_) | | | | |) || _ \| _| | |__   | |  `,
		`  \_/   \___/ |___||___/ |___/|___||____|  |_|  `,
		`                                                `,
	}

	// Find max width for centering
	titleWidth := 0
	for _, line := range titleArt {
		if len(line) > titleWidth {
			titleWidth = len(line)
		}
	}

	// Draw title art centered
	cw := c.chunkWriter
	titleStartY := centerY - 7
	for i, line := range titleArt {
		cw.WriteAt(centerX-titleWidth/2, titleStartY+i, line)
		c.canvas.MarkTextDirty(centerX-titleWidth/2, titleStartY+i, len(line))
	}

	// Subtitle
	subtitle := "~ Multiplayer asteroids in a living void ~"
	cw.WriteAt(centerX-len(subtitle)/2, titleStartY+len(titleArt)+1, subtitle)
	c.canvas.MarkTextDirty(centerX-len(subtitle)/2, titleStartY+len(titleArt)+1, len(subtitle))

	// Controls section
	controlsY := titleStartY + len(titleArt) + 3
	controlHeader := "Controls"
	cw.WriteAt(centerX-len(controlHeader)/2, controlsY, controlHeader)
	c.canvas.MarkTextDirty(centerX-len(controlHeader)/2, controlsY, len(controlHeader))

	controlLines := []string{
		"W / Up  . . . . Thrust",
		"A D / < >  . .  Rotate",
		"SPACE  . . . . . Shoot",
		"1  . . . . . Telemetry",
		"Q  . . . . . . .  Quit",
	}
	for i, line := range controlLines {
		cw.WriteAt(centerX-len(line)/2, controlsY+1+i, line)
		c.canvas.MarkTextDirty(centerX-len(line)/2, controlsY+1+i, len(line))
	}

	// Blinking start prompt
	if time.Now().UnixMilli()/600%2 == 0 {
		prompt := ">>  Press SPACE to Start  <<"
		cw.WriteAt(centerX-len(prompt)/2, controlsY+len(controlLines)+2, prompt)
		c.canvas.MarkTextDirty(centerX-len(prompt)/2, controlsY+len(controlLines)+2, len(prompt))
	}

	// GitHub link (OSC 8 clickable hyperlink)
	ghURL := "https://github.com/mkarren/voidbelt"
	ghLabel := "Click to view on github"
	ghLine := fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", ghURL, ghLabel)
	cw.WriteAt(centerX-len(ghLabel)/2, controlsY+len(controlLines)+4, ghLine)
	c.canvas.MarkTextDirty(centerX-len(ghLabel)/2, controlsY+len(controlLines)+4, len(ghLabel))
	ghLabel2 := "github.com/mkarren/voidbelt"
	ghLine2 := fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", ghURL, ghLabel2)
	cw.WriteAt(centerX-len(ghLabel2)/2, controlsY+len(controlLines)+5, ghLine2)
	c.canvas.MarkTextDirty(centerX-len(ghLabel2)/2, controlsY+len(controlLines)+5, len(ghLabel2))
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen (since we no longer clear every frame).
func (c *Client) drawPlayingHUD(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	cw := c.chunkWriter
	// Score display (top left) padded to 8 digits
	scoreText := fmt.Sprintf("Score: %-8d", c.state.Score)
	cw.WriteAt(2, 1, scoreText)

	// Lives display (top right)
	livesText := fmt.Sprintf("Lives: %-3d", c.state.Lives)
	cw.WriteAt(termWidth-len(livesText)-1, 1, livesText)

	// Storm banner and environment notices (top center)
	c.drawNotices(termWidth, snapshot)

	// Minimap (top right, below lives)
	if c.state.Player != nil {
		c.drawMinimap(termWidth, termHeight, snapshot)
	}

	// Radiation exposure bar (bottom left, above coordinates)
	c.drawRadiationBar(termHeight)

	// Hazard proximity warning (bottom center)
	c.drawHazardWarning(termWidth, termHeight, snapshot)

	// Environment telemetry (toggled with 1)
	if c.state.showStats {
		c.drawEnvStats(termWidth, termHeight, snapshot)
	}

	// Live players (bottom right)
	livePlayersText := fmt.Sprintf("Players: %-4d", snapshot.Players)
	cw.WriteAt(termWidth-len(livePlayersText)-1, termHeight, livePlayersText)

	// Coordinates display (bottom left)
	if c.state.Player != nil {
		px, py := c.state.Player.GetPosition()
		coordText := fmt.Sprintf("X:%-5.0f Y:%-5.0f", px, py)
		cw.WriteAt(2, termHeight, coordText)
	}
}

// drawNotices draws the blinking storm banner and the environment notice
// ticker at the top center of the screen.
func (c *Client) drawNotices(termWidth int, snapshot *server.WorldSnapshot) {
	cw := c.chunkWriter
	centerX := termWidth / 2
	row := 1

	if snapshot.Env.StormWarning {
		if time.Now().UnixMilli()/noticeFlashDelay%2 == 0 {
			banner := "!! STORM WARNING !!"
			col := centerX - len(banner)/2
			cw.WriteAt(col, row, draw.ColorRed+banner+draw.ColorReset)
			c.canvas.MarkTextDirty(col, row, len(banner))
		}
		row++
	}

	for _, n := range c.state.notices {
		col := centerX - len(n.text)/2
		cw.WriteAt(col, row, draw.ColorYellow+n.text+draw.ColorReset)
		c.canvas.MarkTextDirty(col, row, len(n.text))
		row++
	}
}

// radiationBarCells is the width of the exposure bar in glyphs.
const radiationBarCells = 10

// drawRadiationBar draws the exposure bar when the player is taking or
// recovering from radiation damage.
func (c *Client) drawRadiationBar(termHeight int) {
	if c.state.RadiationDose <= 0 {
		return
	}
	frac := c.state.RadiationDose / config.RadiationKillDose
	if frac > 1 {
		frac = 1
	}

	var b strings.Builder
	if frac > 0.66 {
		b.WriteString(draw.ColorRed)
	} else {
		b.WriteString(draw.ColorYellow)
	}
	b.WriteString("RAD [")
	for i := 0; i < radiationBarCells; i++ {
		fill := frac*radiationBarCells - float64(i)
		if fill > 1 {
			fill = 1
		}
		if fill < 0 {
			fill = 0
		}
		b.WriteRune(draw.ShadeLevel(fill))
	}
	b.WriteString("]")
	b.WriteString(draw.ColorReset)

	row := termHeight - 1
	c.chunkWriter.WriteAt(2, row, b.String())
	c.canvas.MarkTextDirty(2, row, radiationBarCells+6)
}

// hazardLabel maps a zone kind to its HUD warning text.
func hazardLabel(kind string) string {
	switch kind {
	case "gravity_well":
		return "GRAVITY WELL"
	case "radiation":
		return "RADIATION ZONE"
	default:
		return "DEBRIS FIELD"
	}
}

// wrappedDistSq returns the squared distance between two points on the
// wrapping world torus.
func wrappedDistSq(x1, y1, x2, y2, worldW, worldH float64) float64 {
	dx := math.Abs(x1 - x2)
	if dx > worldW/2 {
		dx = worldW - dx
	}
	dy := math.Abs(y1 - y2)
	if dy > worldH/2 {
		dy = worldH - dy
	}
	return dx*dx + dy*dy
}

// drawHazardWarning shows which hazard zone the player is currently inside.
func (c *Client) drawHazardWarning(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	if c.state.Player == nil {
		return
	}
	px, py := c.state.Player.GetPosition()
	worldW := float64(snapshot.World.Width)
	worldH := float64(snapshot.World.Height)

	for _, zone := range snapshot.Env.Hazards {
		if wrappedDistSq(px, py, zone.X, zone.Y, worldW, worldH) > zone.Radius*zone.Radius {
			continue
		}
		warning := "! " + hazardLabel(zone.Kind) + " !"
		col := termWidth/2 - len(warning)/2
		row := termHeight - 1
		c.chunkWriter.WriteAt(col, row, draw.ColorRed+warning+draw.ColorReset)
		c.canvas.MarkTextDirty(col, row, len(warning))
		return
	}
}

// drawEnvStats draws one line of environment telemetry above the bottom HUD row.
func (c *Client) drawEnvStats(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	st := snapshot.Env
	preset := st.Preset
	if preset == "" {
		preset = "-"
	}
	text := fmt.Sprintf("env %s  lod %s  %3.0f fps  upd %4.1fms  draw %4.1fms  %4d elems  %dKB",
		preset, st.LOD, st.FPS, st.UpdateMillis, st.RenderMillis, st.Elements, st.MemoryKB)

	col := termWidth/2 - len(text)/2
	if col < 1 {
		col = 1
	}
	row := termHeight - 1
	c.chunkWriter.WriteAt(col, row, draw.ColorDim+text+draw.ColorReset)
	c.canvas.MarkTextDirty(col, row, len(text))
}

// drawMinimap draws a small overview of the world showing hazards and players.
// Uses half-block characters (▀▄█) for 2x vertical resolution. Self is bright
// cyan, hazard zones red, other players default.
func (c *Client) drawMinimap(termWidth, termHeight int, snapshot *server.WorldSnapshot) {
	worldW := float64(snapshot.World.Width)
	worldH := float64(snapshot.World.Height)
	if worldW <= 0 || worldH <= 0 {
		return
	}

	// Build minimap grid: 0=empty, 1=other, 2=self, 3=hazard.
	// Players overwrite hazards; self overwrites everything.
	grid := &c.state.minimapGrid
	*grid = [minimapSubRows][minimapWidth]byte{} // Clear

	// Hazard zones first, as filled discs
	for _, zone := range snapshot.Env.Hazards {
		for subRow := 0; subRow < minimapSubRows; subRow++ {
			cy := (float64(subRow) + 0.5) / float64(minimapSubRows) * worldH
			for col := 0; col < minimapWidth; col++ {
				cx := (float64(col) + 0.5) / float64(minimapWidth) * worldW
				if wrappedDistSq(cx, cy, zone.X, zone.Y, worldW, worldH) <= zone.Radius*zone.Radius {
					grid[subRow][col] = 3
				}
			}
		}
	}

	// Map all players to grid cells (2x vertical resolution)
	for _, user := range snapshot.UserObjects {
		x, y := user.GetPosition()
		col := int(x / worldW * float64(minimapWidth))
		subRow := int(y / worldH * float64(minimapSubRows))
		if col < 0 {
			col = 0
		}
		if col >= minimapWidth {
			col = minimapWidth - 1
		}
		if subRow < 0 {
			subRow = 0
		}
		if subRow >= minimapSubRows {
			subRow = minimapSubRows - 1
		}
		if user == c.state.Player {
			grid[subRow][col] = 2 // Self
		} else if grid[subRow][col] != 2 {
			grid[subRow][col] = 1 // Other (don't overwrite self)
		}
	}

	// Position: top-right, below lives
	startCol := termWidth - minimapWidth - 3 // border + padding
	startRow := 3
	if startCol < 1 || startRow+minimapHeight+1 > termHeight {
		return // Not enough space
	}

	// Accumulate minimap output for chunked write
	cw := c.chunkWriter
	cw.WriteAt(startCol, startRow, "┌"+strings.Repeat("─", minimapWidth)+"┐")
	c.canvas.MarkTextDirty(startCol, startRow, minimapWidth+2)

	// Each terminal row combines 2 sub-rows via half-block characters (▀▄█)
	for termRow := 0; termRow < minimapHeight; termRow++ {
		cw.WriteAt(startCol, startRow+1+termRow, "│")
		curColor := ""
		for col := 0; col < minimapWidth; col++ {
			top := grid[termRow*2][col]
			bot := grid[termRow*2+1][col]
			topFilled := top != 0
			botFilled := bot != 0
			wantColor := draw.ColorReset // Default color for other players
			switch {
			case top == 2 || bot == 2:
				wantColor = draw.ColorBrightCyan // Current player
			case top == 3 && bot == 3:
				wantColor = draw.ColorRed // Hazard zone
			}
			var r rune
			switch {
			case topFilled && botFilled:
				r = draw.BlockFull
			case topFilled && !botFilled:
				r = draw.BlockUpperHalf
			case !topFilled && botFilled:
				r = draw.BlockLowerHalf
			default:
				r = ' '
			}
			// Hazard discs render light so player marks stay readable
			if r == draw.BlockFull && top == 3 && bot == 3 {
				r = draw.BlockLight
			}
			if r != ' ' {
				if curColor != wantColor {
					cw.WriteString(wantColor)
					curColor = wantColor
				}
			} else if curColor != "" {
				cw.WriteString(draw.ColorReset)
				curColor = ""
			}
			cw.WriteRune(r)
		}
		if curColor != "" {
			cw.WriteString(draw.ColorReset)
		}
		cw.WriteString("│")
		c.canvas.MarkTextDirty(startCol, startRow+1+termRow, minimapWidth+2)
	}

	cw.WriteAt(startCol, startRow+1+minimapHeight, "└"+strings.Repeat("─", minimapWidth)+"┘")
	c.canvas.MarkTextDirty(startCol, startRow+1+minimapHeight, minimapWidth+2)
}

// drawDeadScreen draws the death/game over screen with the session leaderboard.
func (c *Client) drawDeadScreen(centerX, centerY int, snapshot *server.WorldSnapshot) {
	var titleArt []string
	if c.state.Lives > 0 {
		titleArt = []string{
			` __   _____  _   _   ___ ___ ___ ___   `,
			` \ \ / / _ \| | | | |   \_ _| __|   \  `,
			`  \ V / (_) | |_| | | |) | || _|| |) | `,
			`   |_| \___/ \___/  |___/___|___|___/  `,
			`                                       `,
		}
	} else {
		titleArt = []string{
			`   ___   _   __  __ ___    _____   _____ ___  `,
			`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
			` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
			`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
			`                                              `,
		}
	}

	// Find max width for centering
	titleWidth := 0
	for _, line := range titleArt {
		if len(line) > titleWidth {
			titleWidth = len(line)
		}
	}

	// Draw title art
	cw := c.chunkWriter
	titleStartY := centerY - 8
	for i, line := range titleArt {
		cw.WriteAt(centerX-titleWidth/2, titleStartY+i, line)
		c.canvas.MarkTextDirty(centerX-titleWidth/2, titleStartY+i, len(line))
	}

	// What got the player
	if cause := deathCauseText(c.state.DeathCause); cause != "" {
		cw.WriteAt(centerX-len(cause)/2, titleStartY+len(titleArt), cause)
		c.canvas.MarkTextDirty(centerX-len(cause)/2, titleStartY+len(titleArt), len(cause))
	}

	// Score
	scoreText := fmt.Sprintf("Score: %d", c.state.Score)
	cw.WriteAt(centerX-len(scoreText)/2, titleStartY+len(titleArt)+2, scoreText)
	c.canvas.MarkTextDirty(centerX-len(scoreText)/2, titleStartY+len(titleArt)+2, len(scoreText))

	// Lives or game over info
	if c.state.Lives > 0 {
		livesText := fmt.Sprintf("Lives remaining: %d", c.state.Lives)
		cw.WriteAt(centerX-len(livesText)/2, titleStartY+len(titleArt)+3, livesText)
		c.canvas.MarkTextDirty(centerX-len(livesText)/2, titleStartY+len(titleArt)+3, len(livesText))
	}

	// Session leaderboard
	promptY := titleStartY + len(titleArt) + 5
	if len(snapshot.TopScores) > 0 {
		header := "-- TOP PILOTS --"
		cw.WriteAt(centerX-len(header)/2, promptY, header)
		c.canvas.MarkTextDirty(centerX-len(header)/2, promptY, len(header))
		for i, entry := range snapshot.TopScores {
			line := fmt.Sprintf("%d. %-16s %6d", i+1, entry.Username, entry.Score)
			cw.WriteAt(centerX-len(line)/2, promptY+1+i, line)
			c.canvas.MarkTextDirty(centerX-len(line)/2, promptY+1+i, len(line))
		}
		promptY += len(snapshot.TopScores) + 2
	}

	// Respawn countdown or prompt
	if c.state.RespawnTimeRemaining > 0 {
		countdown := fmt.Sprintf("Respawn in %.1f seconds...", c.state.RespawnTimeRemaining)
		cw.WriteAt(centerX-len(countdown)/2, promptY, countdown)
		c.canvas.MarkTextDirty(centerX-len(countdown)/2, promptY, len(countdown))
	} else if time.Now().UnixMilli()/600%2 == 0 {
		var prompt string
		if c.state.Lives > 0 {
			prompt = ">>  Press SPACE to Continue  <<"
		} else {
			prompt = ">>  Press SPACE to Restart  <<"
		}
		cw.WriteAt(centerX-len(prompt)/2, promptY, prompt)
		c.canvas.MarkTextDirty(centerX-len(prompt)/2, promptY, len(prompt))
	}
}

// deathCauseText formats the killer for the death screen.
func deathCauseText(cause string) string {
	switch cause {
	case "":
		return ""
	case "radiation":
		return "Overcome by radiation"
	case "an asteroid":
		return "Smashed by an asteroid"
	default:
		return "Shot down by " + cause
	}
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "SERVER SHUTTING DOWN"
	cw.WriteAt(centerX-len(title)/2, centerY-3, title)

	msg1 := "The server is restarting for maintenance."
	cw.WriteAt(centerX-len(msg1)/2, centerY-1, msg1)

	msg2 := "Please reconnect in a moment."
	cw.WriteAt(centerX-len(msg2)/2, centerY, msg2)

	remaining := int(c.state.shutdownTimer) + 1
	countdown := fmt.Sprintf("Disconnecting in %d seconds...", remaining)
	cw.WriteAt(centerX-len(countdown)/2, centerY+2, countdown)

	hint := "Press Q to disconnect now"
	cw.WriteAt(centerX-len(hint)/2, centerY+4, hint)
}

// drawPlayerNames draws usernames above other players' ships.
// Marks the drawn cells as dirty so the canvas overwrites them next frame,
// preventing stale name text from persisting when ships move.
func (c *Client) drawPlayerNames(userObjects []*object.User, world object.Screen) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()

	for _, user := range userObjects {
		if user == c.state.Player || user.Username == "" {
			continue
		}

		// Get screen positions (handles world wrapping)
		positions := object.WorldToScreen(user.X, user.Y, c.state.Camera, c.state.View, world)
		for i := 0; i < positions.Count; i++ {
			pos := positions.Positions[i]

			// Convert logical position to terminal coordinates, offset above the ship
			col, row := c.canvas.LogicalToTerminal(pos.X, pos.Y-user.Size-2)

			// Center the username horizontally
			col -= len(user.Username) / 2

			// Clamp to screen bounds
			if row < 1 || row > termHeight {
				continue
			}
			if col < 1 || col+len(user.Username) > termWidth {
				continue
			}

			c.chunkWriter.WriteAt(col, row, user.Username)

			// Mark these cells dirty so the canvas cleans them up next frame
			c.canvas.MarkTextDirty(col, row, len(user.Username))
		}
	}
}
