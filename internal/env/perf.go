package env

import "time"

// fpsWindow is the number of frame deltas in the rolling FPS estimate.
const fpsWindow = 90

// PerfMonitor tracks frame timing and collects the systems' impact reports.
// It is a pure telemetry aggregator: it never alters a system itself.
type PerfMonitor struct {
	target float64
	deltas [fpsWindow]float64
	next   int
	filled int
	sum    float64

	impacts map[string]Impact // Latest report per system
}

// NewPerfMonitor creates a monitor that reports targetFPS until it has
// real frame samples.
func NewPerfMonitor(targetFPS float64) *PerfMonitor {
	return &PerfMonitor{
		target:  targetFPS,
		impacts: make(map[string]Impact),
	}
}

// Frame records one frame delta.
func (p *PerfMonitor) Frame(delta time.Duration) {
	dt := delta.Seconds()
	if dt <= 0 {
		return
	}
	p.sum -= p.deltas[p.next]
	p.deltas[p.next] = dt
	p.sum += dt
	p.next = (p.next + 1) % fpsWindow
	if p.filled < fpsWindow {
		p.filled++
	}
}

// CurrentFPS returns the rolling frames-per-second estimate.
func (p *PerfMonitor) CurrentFPS() float64 {
	if p.filled == 0 || p.sum <= 0 {
		return p.target
	}
	return float64(p.filled) / p.sum
}

// Report stores a system's latest impact. Fire-and-forget: reports are
// overwritten each frame and never block the reporter.
func (p *PerfMonitor) Report(im Impact) {
	if im.System == "" {
		return
	}
	p.impacts[im.System] = im
}

// LastImpact returns the most recent report from the named system.
func (p *PerfMonitor) LastImpact(system string) (Impact, bool) {
	im, ok := p.impacts[system]
	return im, ok
}

// MemoryEstimate sums the latest per-system memory estimates.
func (p *PerfMonitor) MemoryEstimate() int64 {
	var total int64
	for _, im := range p.impacts {
		total += im.MemoryBytes
	}
	return total
}

// reportImpact files one update tick's resource usage with the sink.
// Severity is the fraction of the per-system time allowance consumed.
func reportImpact(ctx UpdateContext, system string, start time.Time, elements int, memBytes int64) {
	if ctx.Impacts == nil {
		return
	}
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	var severity float64
	if ctx.Allowance > 0 {
		severity = ms / ctx.Allowance
	}
	ctx.Impacts.Report(Impact{
		System:       system,
		UpdateMillis: ms,
		Elements:     elements,
		MemoryBytes:  memBytes,
		Severity:     severity,
	})
}
