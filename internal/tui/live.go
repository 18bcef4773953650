// Package tui renders the optional terminal live view: a rotor dial, a wind
// bar, and the headline run numbers, redrawn in place with ANSI escapes.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"windsim/internal/run"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"

	bladeLen = 8.0
	// Full scale of the wind bar, m/s.
	windBarMax = 25.0
)

// LiveRenderer draws the run state at a capped frame rate. Bind once, then
// hand OnTick to the loop as its observer.
type LiveRenderer struct {
	frameRate int
	lastFrame time.Time
	canvas    [][]rune

	timeSec   *float64
	theta     *float64
	omega     *float64
	flowSpeed *float64
	tauX      *float64
}

func NewLiveRenderer(frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{frameRate: frameRate, canvas: canvas}
}

func (r *LiveRenderer) Bind(rc *run.Context) error {
	var err error
	if r.timeSec, err = rc.Dynamic.BindDouble("time_sec"); err != nil {
		return err
	}
	if r.theta, err = rc.Dynamic.BindDouble("theta"); err != nil {
		return err
	}
	if r.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if r.flowSpeed, err = rc.Dynamic.BindDouble("flow_speed"); err != nil {
		return err
	}
	if r.tauX, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	return nil
}

// OnTick is the loop observer. Frames past the cap are dropped so rendering
// never slows the simulation down.
func (r *LiveRenderer) OnTick(rc *run.Context) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawRotor()
	r.drawWindBar()
	r.render()
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRotor draws a three-blade dial turned to the current azimuth.
func (r *LiveRenderer) drawRotor() {
	hx, hy := width/2, height/2-1
	for k := 0; k < 3; k++ {
		a := *r.theta + float64(k)*2*math.Pi/3
		bx := hx + int(bladeLen*math.Sin(a))
		by := hy - int(bladeLen*math.Cos(a))
		r.line(hx, hy, bx, by, '|')
		r.set(bx, by, 'o')
	}
	r.set(hx, hy, '+')
}

func (r *LiveRenderer) drawWindBar() {
	y := height - 2
	frac := *r.flowSpeed / windBarMax
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	span := width - 20
	fill := int(frac * float64(span))
	for i := 0; i < span; i++ {
		c := '.'
		if i < fill {
			c = '='
		}
		r.set(10+i, y, c)
	}
	label := fmt.Sprintf("wind %5.2f m/s", *r.flowSpeed)
	for i, c := range label {
		r.set(10+span+2+i, y, c)
	}
}

func (r *LiveRenderer) render() {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  t=%8.3fs  omega=%7.3f rad/s  tau_extract=%9.2f Nm\n",
		*r.timeSec, *r.omega, *r.tauX))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
