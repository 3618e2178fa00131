// Package ui renders stress-run progress with Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"dynsite/internal/observ"
)

// Status is the state of one worker.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

var statusNames = [...]string{"queued", "working", "done", "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return ""
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = [...]lipgloss.Style{
		StatusQueued:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		StatusWorking: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// Event reports worker progress and carries the shared site's counters at
// the time it was sent. Worker < 0 updates only the counters.
type Event struct {
	Worker int
	Done   int
	Status Status
	Note   string
	Stats  observ.SiteStats
}

// cellWidth is the width of one worker cell in the grid, separator included.
const cellWidth = 24

type worker struct {
	done   int
	status Status
	note   string
}

type progressModel struct {
	title     string
	events    <-chan Event
	perWorker int
	workers   []worker
	stats     observ.SiteStats
	started   time.Time
	spinner   spinner.Model
	bar       progress.Model
	width     int
	finished  bool
}

type eventMsg Event
type closedMsg struct{}

// NewProgressModel returns a model for workers goroutines making perWorker
// calls each. It quits once events is closed.
func NewProgressModel(title string, workers, perWorker int, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = statusStyle[StatusWorking]
	return &progressModel{
		title:     title,
		events:    events,
		perWorker: perWorker,
		workers:   make([]worker, workers),
		started:   time.Now(),
		spinner:   sp,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:     80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return closedMsg{}
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(Event(msg)), m.next())
	case closedMsg:
		m.finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
	case spinner.TickMsg:
		if !m.finished {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	m.stats = ev.Stats
	if ev.Worker < 0 || ev.Worker >= len(m.workers) {
		return nil
	}
	m.workers[ev.Worker] = worker{done: ev.Done, status: ev.Status, note: ev.Note}
	return m.bar.SetPercent(m.fraction())
}

// fraction is the share of all planned calls made so far. Finished and
// failed workers count as complete.
func (m *progressModel) fraction() float64 {
	if m.perWorker <= 0 || len(m.workers) == 0 {
		return 0
	}
	var sum float64
	for _, w := range m.workers {
		if w.status == StatusDone || w.status == StatusError {
			sum++
			continue
		}
		sum += float64(min(w.done, m.perWorker)) / float64(m.perWorker)
	}
	return sum / float64(len(m.workers))
}

func (m *progressModel) View() string {
	var b strings.Builder
	head := m.spinner.View() + " " + m.title
	if m.finished {
		head = "done: " + m.title
	}
	b.WriteString(titleStyle.Render(head))
	b.WriteString("\n\n")

	perRow := max(1, (m.width-2)/cellWidth)
	for i, w := range m.workers {
		if i%perRow == 0 {
			b.WriteString("  ")
		}
		b.WriteString(m.cell(i, w))
		if i%perRow == perRow-1 || i == len(m.workers)-1 {
			b.WriteByte('\n')
		}
	}

	m.bar.Width = max(10, m.width-4)
	b.WriteString("\n  ")
	if m.finished {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n  ")
	b.WriteString(Truncate(StatsLine(m.stats)+m.throughput(), max(10, m.width-2)))
	b.WriteByte('\n')
	return b.String()
}

// cell renders one worker as "worker 3  1500/2000" padded to cellWidth, or
// its note when it has one.
func (m *progressModel) cell(i int, w worker) string {
	text := fmt.Sprintf("worker %d  %d/%d", i, w.done, m.perWorker)
	if w.note != "" {
		text = fmt.Sprintf("worker %d  %s", i, w.note)
	}
	text = Truncate(text, cellWidth-1)
	pad := strings.Repeat(" ", cellWidth-runewidth.StringWidth(text))
	style := statusStyle[StatusQueued]
	if int(w.status) < len(statusStyle) {
		style = statusStyle[w.status]
	}
	return style.Render(text) + pad
}

// throughput is the call rate across all workers since the model started.
func (m *progressModel) throughput() string {
	calls := m.stats.Hits + m.stats.Misses
	secs := time.Since(m.started).Seconds()
	if calls == 0 || secs <= 0 {
		return ""
	}
	return fmt.Sprintf("  %.0f calls/s", float64(calls)/secs)
}

// StatsLine renders site counters on one line.
func StatsLine(s observ.SiteStats) string {
	return fmt.Sprintf("hits %d  misses %d  binds %d  promotions %d  evictions %d  hit rate %.1f%%",
		s.Hits, s.Misses, s.Binds, s.Promotions, s.Evictions, 100*s.HitRate())
}

// Truncate shortens value to width display cells, marking the cut with
// "...". A non-positive width disables truncation.
func Truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
