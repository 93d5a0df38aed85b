// Command play runs one game in the terminal, rendering the grid one z-slice
// at a time while the playback controller ticks the simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atlascodesai/snake-ai-arena/internal/grid"
	"github.com/atlascodesai/snake-ai-arena/internal/playback"
	"github.com/atlascodesai/snake-ai-arena/internal/replay"
	"github.com/atlascodesai/snake-ai-arena/internal/sandbox"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

var (
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	foodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

type model struct {
	snap    sim.Snapshot
	slice   int
	updates chan sim.Snapshot
	stop    func()
}

type gameOverMsg struct{}

func waitForSnapshot(updates chan sim.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return gameOverMsg{}
		}
		return snap
	}
}

func (m model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stop()
			return m, tea.Quit
		case "up", "k":
			if m.slice < grid.Half-1 {
				m.slice++
			}
		case "down", "j":
			if m.slice > -grid.Half {
				m.slice--
			}
		}
		return m, nil
	case sim.Snapshot:
		m.snap = msg
		return m, waitForSnapshot(m.updates)
	case gameOverMsg:
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"frame %d  score %d  length %d  slice z=%d", m.snap.Frame, m.snap.Score, len(m.snap.Body), m.slice)))
	b.WriteString("\n\n")

	cells := map[grid.Position]string{}
	for i, p := range m.snap.Body {
		if p.Z != m.slice {
			continue
		}
		if i == 0 {
			cells[p] = headStyle.Render("@")
		} else {
			cells[p] = bodyStyle.Render("o")
		}
	}
	if m.snap.Food.Z == m.slice {
		cells[m.snap.Food] = foodStyle.Render("*")
	}

	for y := grid.Half - 1; y >= -grid.Half; y-- {
		for x := -grid.Half; x < grid.Half; x++ {
			if c, ok := cells[grid.Position{X: x, Y: y, Z: m.slice}]; ok {
				b.WriteString(c)
			} else {
				b.WriteString(emptyStyle.Render("."))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.snap.IsOver {
		b.WriteString(fmt.Sprintf("game over: %s\n", m.snap.Reason))
	}
	b.WriteString("arrows/jk change slice, q quits\n")
	return b.String()
}

func main() {
	var (
		algoPath   = flag.String("algo", "", "path to algorithm source (default: built-in greedy)")
		replayPath = flag.String("replay", "", "play back a recorded replay instead of a live game")
		seed       = flag.Int64("seed", 1, "game seed")
		maxFrames  = flag.Int("max-frames", 1000, "frame limit")
		tickMs     = flag.Int("tick", 100, "milliseconds per tick")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[PLAY] ", log.LstdFlags)
	updates := make(chan sim.Snapshot, 16)

	var stop func()
	if *replayPath != "" {
		stop = startReplay(logger, *replayPath, *tickMs, updates)
	} else {
		stop = startLive(logger, *algoPath, *seed, *maxFrames, *tickMs, updates)
	}

	p := tea.NewProgram(model{updates: updates, stop: stop})
	if _, err := p.Run(); err != nil {
		logger.Fatalf("tui: %v", err)
	}
}

// startLive compiles the algorithm and ticks a fresh game, feeding snapshots
// to the TUI. The returned stop function is idempotent.
func startLive(logger *log.Logger, algoPath string, seed int64, maxFrames, tickMs int, updates chan sim.Snapshot) func() {
	source := sandbox.ExampleGreedy
	if algoPath != "" {
		data, err := os.ReadFile(algoPath)
		if err != nil {
			logger.Fatalf("reading algorithm: %v", err)
		}
		source = string(data)
	}

	decide, err := sandbox.Compile(source)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	simulation := sim.New(decide, seed, maxFrames)
	controller := playback.New(simulation, func(snap sim.Snapshot) {
		// Drop frames rather than block the simulation when the TUI is
		// quitting or slow.
		select {
		case updates <- snap:
		default:
		}
	})
	go func() {
		defer close(updates)
		controller.Run(context.Background(), time.Duration(tickMs)*time.Millisecond)
	}()
	return controller.Stop
}

// startReplay streams a recorded game's snapshots at the chosen pace.
func startReplay(logger *log.Logger, path string, tickMs int, updates chan sim.Snapshot) func() {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatalf("opening replay: %v", err)
	}
	snaps, err := replay.ReadAll(f)
	f.Close()
	if err != nil {
		logger.Fatalf("reading replay: %v", err)
	}

	stop := make(chan struct{})
	go func() {
		defer close(updates)
		ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
		defer ticker.Stop()
		for _, snap := range snaps {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case updates <- snap:
				case <-stop:
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}
