package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/koscakluka/cascade/core/cascade"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/stats"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleSpeech  = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	styleInterr  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleRejected = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleStatus  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// resultMsg wraps a cascade.Result for the bubbletea event loop.
type resultMsg struct {
	result cascade.Result
	err    error
}

// tickMsg refreshes the stats footer periodically.
type tickMsg time.Time

type model struct {
	results <-chan resultMsg
	statsFn func() stats.Snapshot
	cycleFn func() interruptions.State

	log   viewport.Model
	lines []string
	state interruptions.State

	width, height int
	quitting      bool
}

func newModel(results <-chan resultMsg, statsFn func() stats.Snapshot, cycleFn func() interruptions.State) model {
	return model{
		results: results,
		statsFn: statsFn,
		cycleFn: cycleFn,
		log:     viewport.New(80, 20),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.listenResults(), m.tick())
}

func (m model) listenResults() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.results
		if !ok {
			return nil
		}
		return msg
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case " ":
			if m.cycleFn != nil {
				m.state = m.cycleFn()
			}
			m.lines = append(m.lines, styleStatus.Render(fmt.Sprintf("system state: %s", m.state)))
			m.log.SetContent(m.renderLog())
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.log.Width = msg.Width
		m.log.Height = msg.Height - 6

	case resultMsg:
		if msg.err != nil {
			m.lines = append(m.lines, styleRejected.Render("error: "+msg.err.Error()))
			m.log.SetContent(m.renderLog())
			m.log.GotoBottom()
		} else if msg.result.Kind() != cascade.ResultFrame {
			m.lines = append(m.lines, renderResult(msg.result))
			if msg.result.Kind() == cascade.ResultInterruption {
				m.state = interruptions.StateCollecting
			}
			m.log.SetContent(m.renderLog())
			m.log.GotoBottom()
		}
		return m, m.listenResults()

	case tickMsg:
		return m, m.tick()
	}

	return m, nil
}

func renderResult(r cascade.Result) string {
	switch r.Kind() {
	case cascade.ResultSegment:
		seg := r.Segment()
		return styleSpeech.Render(fmt.Sprintf("[%5dms] segment  duration=%dms", r.TimestampMs(), seg.DurationMs()))
	case cascade.ResultInterruption:
		ev := r.Interruption()
		return styleInterr.Render(fmt.Sprintf("[%5dms] interruption  %s -> collecting  confidence=%.2f", r.TimestampMs(), ev.InterruptedState, ev.Confidence))
	default:
		return styleIdle.Render(fmt.Sprintf("[%5dms] frame", r.TimestampMs()))
	}
}

func (m model) renderLog() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return wordwrap.String(strings.Join(m.lines, "\n"), width)
}

func (m model) View() string {
	if m.quitting {
		return "goodbye\n"
	}

	snap := m.statsFn()
	footer := styleStatus.Render(fmt.Sprintf(
		"frames=%d segments=%d accepted=%d rejected=%d avg=%.2fms state=%s  (space: cycle system state, q: quit)",
		snap.FramesProcessed, snap.SegmentsDetected, snap.InterruptionsAccepted, snap.InterruptionsRejected,
		snap.AverageProcessingTimeMs, m.state,
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		styleTitle.Render("cascade miclisten"),
		m.log.View(),
		footer,
	)
}
