package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"qos-probe/internal/config"
	"qos-probe/internal/sample"
)

func TestModelCountsSamples(t *testing.T) {
	m := newModel(config.Default())

	var mdl tea.Model = m
	mdl, _ = mdl.Update(sampleMsg{s: sample.Arrival{SeqNum: 3, Latency: 42, QoS: 1}})
	mdl, _ = mdl.Update(sampleMsg{s: &sample.DisconnectMarker{SeqNum: sample.Sentinel, LastSeqNum: 3}})

	view := mdl.View()
	if !strings.Contains(view, "received 1/50") {
		t.Fatalf("view missing received counter:\n%s", view)
	}
	if !strings.Contains(view, "disconnects 1") {
		t.Fatalf("view missing disconnect counter:\n%s", view)
	}
	if !strings.Contains(view, "last latency 42ms") {
		t.Fatalf("view missing last latency:\n%s", view)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := newModel(config.Default())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit the dashboard")
	}
}

type fakeProgram struct {
	msgs []tea.Msg
}

func (f *fakeProgram) Send(m tea.Msg) { f.msgs = append(f.msgs, m) }
func (f *fakeProgram) Quit()          {}

func TestWriterForwardsSamples(t *testing.T) {
	fp := &fakeProgram{}
	w := &Writer{program: fp, done: make(chan struct{})}
	if err := w.WriteSample(sample.Arrival{SeqNum: 1}); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if len(fp.msgs) != 1 {
		t.Fatalf("program received %d messages, want 1", len(fp.msgs))
	}
}
