package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunOutput is the display state of one pipeline run.
type RunOutput struct {
	ID          int
	Label       string
	Status      string
	Message     string
	Progress    string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders the live state of one or more runs. On a terminal the
// display is redrawn every tick; otherwise only the final state is written
// when the display stops.
type Manager struct {
	out         io.Writer
	interactive bool
	outputs     []*RunOutput
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return NewManagerWithWriter(os.Stdout, isTerminal(os.Stdout))
}

func NewManagerWithWriter(out io.Writer, interactive bool) *Manager {
	return &Manager{
		out:         out,
		interactive: interactive,
		doneCh:      make(chan struct{}),
		displayTick: 200 * time.Millisecond,
	}
}

func (m *Manager) Register(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	id := len(m.outputs) + 1
	m.outputs = append(m.outputs, &RunOutput{
		ID:          id,
		Label:       label,
		Status:      StatusPending,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	})
	return id
}

func (m *Manager) get(id int) *RunOutput {
	if id < 1 || id > len(m.outputs) {
		return nil
	}
	return m.outputs[id-1]
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info := m.get(id); info != nil {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

// SetProgress marks the run active and shows current/total items.
func (m *Manager) SetProgress(id, current, total int, unit string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info := m.get(id); info != nil {
		if info.Status == StatusPending {
			info.StartTime = time.Now()
		}
		info.Status = StatusRunning
		info.Progress = fmt.Sprintf("%s %d / %d %s", ProgressBar(current, total, 30), current, total, unit)
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info := m.get(id); info != nil {
		if message == "" {
			message = fmt.Sprintf("Completed %s", info.Label)
		}
		info.Message = message
		info.Progress = ""
		info.Complete = true
		info.Status = StatusSuccess
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info := m.get(id); info != nil {
		info.Message = err.Error()
		info.Progress = ""
		info.Complete = true
		info.Status = StatusError
		info.Error = err
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Label: info.Label, Error: err, Time: time.Now()})
	}
}

func (m *Manager) GetStatus(id int) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if info := m.get(id); info != nil {
		return info.Status
	}
	return "unknown"
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.interactive {
					m.updateDisplay()
				}
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func statusIndicator(status string) string {
	switch status {
	case StatusSuccess:
		return successStyle.Render(StyleSymbols["pass"])
	case StatusError:
		return errorStyle.Render(StyleSymbols["fail"])
	case StatusPending:
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func styleMessage(status, message string) string {
	switch status {
	case StatusSuccess:
		return successStyle.Render(message)
	case StatusError:
		return errorStyle.Render(message)
	case StatusPending:
		return pendingStyle.Render("Waiting...")
	default:
		return pendingStyle.Render(message)
	}
}

func (m *Manager) updateDisplay() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	availableLines := getTerminalHeight() - 3
	if m.interactive && m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	outputs := m.outputs
	// Keep the most recent runs when they do not fit.
	if m.interactive && len(outputs) > availableLines/2 {
		hidden := len(outputs) - availableLines/2
		fmt.Fprintf(m.out, "  %s\n", infoStyle.Render(fmt.Sprintf("%d earlier runs hidden ...", hidden)))
		lineCount++
		outputs = outputs[hidden:]
	}
	for _, info := range outputs {
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		label := ""
		if info.Label != "" {
			label = headerStyle.Render(info.Label) + " "
		}
		fmt.Fprintf(m.out, "  %s %s %s%s\n", statusIndicator(info.Status), debugStyle.Render(elapsed.String()), label, styleMessage(info.Status, info.Message))
		lineCount++
		if info.Progress != "" {
			fmt.Fprintf(m.out, "      %s\n", streamStyle.Render(info.Progress))
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if len(m.outputs) < 2 && len(m.errors) == 0 {
		return
	}
	var success, failures int
	for _, info := range m.outputs {
		switch info.Status {
		case StatusSuccess:
			success++
		case StatusError:
			failures++
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "  "+successStyle.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Fprintln(m.out, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	if len(m.errors) > 0 {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "  "+errorStyle.Bold(true).Render("Errors:"))
		for i, report := range m.errors {
			fmt.Fprintf(m.out, "%s%s %s %s\n",
				strings.Repeat(" ", 4),
				errorStyle.Render(fmt.Sprintf("%d.", i+1)),
				debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format(time.TimeOnly))),
				errorStyle.Render(fmt.Sprintf("%s: %v", report.Label, report.Error)))
		}
	}
	fmt.Fprintln(m.out)
}
