package simulate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Activity mix weights, out of 100.
const (
	typingWeight = 50
	mouseWeight  = 25
	switchWeight = 15
)

// Typing texture.
const (
	keystrokeMinMS    = 80
	keystrokeJitterMS = 120
	typoChance        = 0.08
	burstPauseMinMS   = 1000
	burstPauseMaxMS   = 3000
)

// Mouse texture.
const (
	moveStepPx    = 40.0
	misclickDrift = 60.0
	misclickRate  = 0.15
	screenWidth   = 1920.0
	screenHeight  = 1080.0
)

var windows = []model.WindowInfo{
	{Title: "main.go - editor", Application: "editor", PID: 4021},
	{Title: "docs - browser", Application: "browser", PID: 3544},
	{Title: "~ - terminal", Application: "terminal", PID: 2977},
	{Title: "inbox - mail", Application: "mail", PID: 5110},
}

var lexicon = []string{
	"the", "quick", "build", "signal", "window", "pattern", "buffer",
	"metric", "queue", "handler", "context", "stream", "worker", "flush",
}

var paths = []string{
	"/home/user/projects/monitor/main.go",
	"/home/user/projects/monitor/notes.md",
	"/home/user/documents/report.txt",
	"/home/user/downloads/dataset.csv",
}

// generator produces a plausible stream of desktop interaction events.
type generator struct {
	rng       *rand.Rand
	sessionID string
	clock     time.Time
	windowIdx int
	x, y      float64
	seq       int
}

func newGenerator(seed int64, start time.Time) *generator {
	rng := rand.New(rand.NewSource(seed))
	return &generator{
		rng:       rng,
		sessionID: uuid.New().String(),
		clock:     start,
		windowIdx: rng.Intn(len(windows)),
		x:         screenWidth / 2,
		y:         screenHeight / 2,
	}
}

// GenerateEvents produces n events whose timestamps span roughly the
// configured duration, ending near now.
func GenerateEvents(cfg *Config) []model.RawEvent {
	start := time.Now().UTC().Add(-cfg.Duration)
	g := newGenerator(cfg.Seed, start)

	events := make([]model.RawEvent, 0, cfg.NumEvents)
	for len(events) < cfg.NumEvents {
		events = append(events, g.nextActivity(cfg.NumEvents-len(events))...)
	}
	events = events[:cfg.NumEvents]

	// Rescale timestamps onto the requested span so the service sees
	// recent activity regardless of how the bursts happened to land.
	if cfg.Duration > 0 && len(events) > 1 {
		first := events[0].Timestamp
		span := events[len(events)-1].Timestamp.Sub(first)
		if span > 0 {
			scale := float64(cfg.Duration) / float64(span)
			for i := range events {
				offset := time.Duration(float64(events[i].Timestamp.Sub(first)) * scale)
				events[i].Timestamp = start.Add(offset)
			}
		}
	}

	return events
}

// nextActivity emits one burst of related events, at most budget long.
func (g *generator) nextActivity(budget int) []model.RawEvent {
	switch roll := g.rng.Intn(100); {
	case roll < typingWeight:
		return g.typingBurst(budget)
	case roll < typingWeight+mouseWeight:
		return g.mouseActivity(budget)
	case roll < typingWeight+mouseWeight+switchWeight:
		return g.windowSwitch()
	default:
		return g.fileAccess()
	}
}

func (g *generator) typingBurst(budget int) []model.RawEvent {
	words := 2 + g.rng.Intn(5)
	var events []model.RawEvent

	for w := 0; w < words && len(events) < budget; w++ {
		word := lexicon[g.rng.Intn(len(lexicon))]
		for _, r := range word {
			g.advance(time.Duration(keystrokeMinMS+g.rng.Intn(keystrokeJitterMS)) * time.Millisecond)
			events = append(events, g.keyEvent(string(r)))
			if g.rng.Float64() < typoChance {
				g.advance(time.Duration(keystrokeMinMS+g.rng.Intn(keystrokeJitterMS)) * time.Millisecond)
				events = append(events, g.keyEvent("backspace"))
				g.advance(time.Duration(keystrokeMinMS+g.rng.Intn(keystrokeJitterMS)) * time.Millisecond)
				events = append(events, g.keyEvent(string(r)))
			}
			if len(events) >= budget {
				return events
			}
		}
		g.advance(time.Duration(keystrokeMinMS+g.rng.Intn(keystrokeJitterMS)) * time.Millisecond)
		events = append(events, g.keyEvent("space"))
	}

	// Think for a moment between bursts.
	g.advance(time.Duration(burstPauseMinMS+g.rng.Intn(burstPauseMaxMS-burstPauseMinMS)) * time.Millisecond)
	return events
}

func (g *generator) mouseActivity(budget int) []model.RawEvent {
	moves := 3 + g.rng.Intn(6)
	var events []model.RawEvent

	for m := 0; m < moves && len(events) < budget; m++ {
		angle := g.rng.Float64() * 2 * math.Pi
		g.x = clampCoord(g.x+math.Cos(angle)*moveStepPx*(0.5+g.rng.Float64()), screenWidth)
		g.y = clampCoord(g.y+math.Sin(angle)*moveStepPx*(0.5+g.rng.Float64()), screenHeight)
		g.advance(time.Duration(30+g.rng.Intn(90)) * time.Millisecond)
		events = append(events, g.mouseEvent(model.MouseMove, g.x, g.y))
	}

	if len(events) < budget {
		cx, cy := g.x, g.y
		if g.rng.Float64() < misclickRate {
			cx = clampCoord(cx+misclickDrift+g.rng.Float64()*misclickDrift, screenWidth)
			cy = clampCoord(cy+misclickDrift+g.rng.Float64()*misclickDrift, screenHeight)
		}
		g.advance(time.Duration(60+g.rng.Intn(120)) * time.Millisecond)
		events = append(events, g.mouseEvent(model.MouseClick, cx, cy))
	}
	return events
}

func (g *generator) windowSwitch() []model.RawEvent {
	from := windows[g.windowIdx]
	next := g.rng.Intn(len(windows) - 1)
	if next >= g.windowIdx {
		next++
	}
	g.windowIdx = next
	to := windows[g.windowIdx]

	g.advance(time.Duration(400+g.rng.Intn(1200)) * time.Millisecond)
	e := g.baseEvent(model.EventWindowSwitch)
	e.FromWindow = from.Title
	e.ToWindow = to.Title
	return []model.RawEvent{e}
}

func (g *generator) fileAccess() []model.RawEvent {
	g.advance(time.Duration(300+g.rng.Intn(900)) * time.Millisecond)
	e := g.baseEvent(model.EventFileAccess)
	e.Path = paths[g.rng.Intn(len(paths))]
	return []model.RawEvent{e}
}

func (g *generator) keyEvent(key string) model.RawEvent {
	e := g.baseEvent(model.EventKeyboard)
	e.Key = key
	e.KeyAction = model.KeyDown
	return e
}

func (g *generator) mouseEvent(action string, x, y float64) model.RawEvent {
	e := g.baseEvent(model.EventMouse)
	e.MouseAction = action
	e.X = x
	e.Y = y
	if action == model.MouseClick {
		e.Button = "left"
	}
	return e
}

func (g *generator) baseEvent(t model.EventType) model.RawEvent {
	g.seq++
	return model.RawEvent{
		ID:        fmt.Sprintf("sim_%s_%06d", g.sessionID[:8], g.seq),
		SessionID: g.sessionID,
		Type:      t,
		Timestamp: g.clock,
		Window:    windows[g.windowIdx],
	}
}

func (g *generator) advance(d time.Duration) {
	g.clock = g.clock.Add(d)
}

func clampCoord(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
