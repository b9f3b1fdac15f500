// Package tui renders a live terminal dashboard for a measurement run.
package tui

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"qos-probe/internal/config"
	"qos-probe/internal/sample"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
	Quit()
}

// sampleMsg carries one recorded sample into the model.
type sampleMsg struct {
	s sample.Sample
}

// Writer feeds recorded samples into a bubbletea dashboard.
type Writer struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewWriter starts the dashboard program. Quitting the dashboard with q
// interrupts the process, which triggers the normal shutdown and report.
func NewWriter(cfg *config.Config) *Writer {
	w := &Writer{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteSample implements sample.Writer.
func (w *Writer) WriteSample(s sample.Sample) error {
	w.program.Send(sampleMsg{s: s})
	return nil
}

// Close stops the dashboard without interrupting the process. It blocks
// until the terminal is restored.
func (w *Writer) Close() {
	w.sendSignal.Store(false)
	w.program.Quit()
	<-w.done
}

func rowFor(s sample.Sample) table.Row {
	switch v := s.(type) {
	case sample.Arrival:
		return table.Row{
			fmt.Sprintf("%d", v.SeqNum),
			fmt.Sprintf("%d", v.Latency),
			fmt.Sprintf("%d", v.QoS),
		}
	case *sample.DisconnectMarker:
		return table.Row{"disconnect", fmt.Sprintf("last seq %d", v.LastSeqNum), ""}
	}
	return table.Row{"", "", ""}
}
