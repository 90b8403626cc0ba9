package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/results"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

type EntryOutput struct {
	Position    int
	Title       string
	Status      session.Status
	StreamLines []string
	Progress    float64
	HasProgress bool
	StartTime   time.Time
	LastUpdated time.Time
}

// Manager renders per-entry progress. On a terminal it redraws a live view;
// otherwise it prints one line per status change.
type Manager struct {
	out         io.Writer
	live        bool
	outputs     map[int]*EntryOutput
	mutex       sync.RWMutex
	numLines    int
	maxStreams  int
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
	running     bool
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		out:         out,
		live:        isTerminal(out),
		outputs:     make(map[int]*EntryOutput),
		maxStreams:  3,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

// RegisterEntries adds entries in the pending state.
func (m *Manager) RegisterEntries(entries []session.Entry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, e := range entries {
		m.outputs[e.Position] = &EntryOutput{
			Position:    e.Position,
			Title:       e.Stem(),
			Status:      session.StatusPending,
			StartTime:   time.Now(),
			LastUpdated: time.Now(),
		}
	}
}

func (m *Manager) Report(position int, status session.Status) {
	m.mutex.Lock()
	info, exists := m.outputs[position]
	if !exists {
		info = &EntryOutput{Position: position, Title: fmt.Sprintf("%03d", position)}
		m.outputs[position] = info
	}
	if status == session.StatusRunning && info.Status != session.StatusRunning {
		info.StartTime = time.Now()
	}
	info.Status = status
	info.LastUpdated = time.Now()
	if status.Final() {
		info.StreamLines = nil
		info.HasProgress = false
	}
	title := info.Title
	elapsed := info.LastUpdated.Sub(info.StartTime).Round(time.Second)
	m.mutex.Unlock()

	if !m.live {
		line := fmt.Sprintf("  %s %s", statusIndicator(status), statusStyle(status).Render(title))
		if status.Final() {
			line += " " + debugStyle.Render(elapsed.String())
		}
		fmt.Fprintln(m.out, line)
	}
}

func (m *Manager) Stream(position int, line string) {
	if !m.live {
		log.Debug().Str("op", "output/stream").Int("position", position).Msg(line)
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[position]
	if !exists {
		return
	}
	if pct, ok := ytdlp.ParseProgress(line); ok {
		info.Progress = pct
		info.HasProgress = true
		return
	}
	width, _ := terminalSize(m.out)
	info.StreamLines = append(info.StreamLines, wrapText(line, width-8)...)
	if len(info.StreamLines) > m.maxStreams {
		info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
	}
	info.LastUpdated = time.Now()
}

func (m *Manager) sortEntries() (active, pending, completed []*EntryOutput) {
	var all []*EntryOutput
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Position < all[j].Position
	})
	for _, e := range all {
		switch {
		case e.Status.Final():
			completed = append(completed, e)
		case e.Status == session.StatusRunning:
			active = append(active, e)
		default:
			pending = append(pending, e)
		}
	}
	return active, pending, completed
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	width, height := terminalSize(m.out)
	availableLines := height - 3
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}

	lineCount := 0
	active, pending, completed := m.sortEntries()
	indent := strings.Repeat(" ", 2+4)
	emit := func(text string) {
		if lineCount >= availableLines {
			return
		}
		fmt.Fprintln(m.out, text)
		lineCount++
	}

	// completed entries scroll away first when the screen is full
	needed := len(completed) + min(len(pending), 1)
	for _, e := range active {
		needed += 2 + len(e.StreamLines)
	}
	if needed > availableLines && len(completed) > 0 {
		keep := max(0, availableLines-(needed-len(completed))-1)
		emit(fmt.Sprintf("  %s", infoStyle.Render(fmt.Sprintf("%d earlier entries finished", len(completed)-keep))))
		completed = completed[len(completed)-keep:]
	}
	for _, e := range completed {
		elapsed := e.LastUpdated.Sub(e.StartTime).Round(time.Second)
		emit(fmt.Sprintf("  %s %s %s", statusIndicator(e.Status), debugStyle.Render(elapsed.String()), statusStyle(e.Status).Render(truncate(e.Title, width-16))))
	}
	for _, e := range active {
		elapsed := time.Since(e.StartTime).Round(time.Second)
		emit(fmt.Sprintf("  %s %s %s", statusIndicator(e.Status), debugStyle.Render(elapsed.String()), pendingStyle.Render(truncate(e.Title, width-16))))
		if e.HasProgress {
			emit(indent + progressBar(e.Progress, 30))
		}
		for _, line := range e.StreamLines {
			emit(indent + streamStyle.Render(line))
		}
	}
	if len(pending) > 0 {
		emit(fmt.Sprintf("  %s %s", statusIndicator(session.StatusPending), pendingStyle.Render(fmt.Sprintf("%d waiting", len(pending)))))
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	if !m.live || m.running {
		return
	}
	m.running = true
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	if !m.running {
		return
	}
	close(m.doneCh)
	m.displayWg.Wait()
	m.running = false
}

func (m *Manager) ShowSummary(summary results.Summary) {
	fmt.Fprintln(m.out)
	fmt.Fprint(m.out, RenderSummary(summary))
	fmt.Fprintln(m.out)
}
