package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"qos-probe/internal/config"
	"qos-probe/internal/sample"
)

const recentRows = 12

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	cfg         *config.Config
	tbl         table.Model
	width       int
	received    int
	disconnects int
	lastLatency int64
	haveLatency bool
}

func newModel(cfg *config.Config) model {
	cols := []table.Column{
		{Title: "SEQ", Width: 12},
		{Title: "LATENCY (ms)", Width: 16},
		{Title: "QOS", Width: 4},
	}
	tbl := table.New(table.WithColumns(cols), table.WithHeight(recentRows))
	return model{cfg: cfg, tbl: tbl, width: 80}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case sampleMsg:
		switch v := msg.s.(type) {
		case sample.Arrival:
			m.received++
			m.lastLatency = v.Latency
			m.haveLatency = true
		case *sample.DisconnectMarker:
			m.disconnects++
		}
		rows := append([]table.Row{rowFor(msg.s)}, m.tbl.Rows()...)
		if len(rows) > recentRows {
			rows = rows[:recentRows]
		}
		m.tbl.SetRows(rows)
	}
	return m, nil
}

func (m model) View() string {
	header := headerStyle.Render(fmt.Sprintf("qos-probe  broker=%s  topic=%s  qos=%d  netcond=%s",
		m.cfg.Shared.BrokerURL, m.cfg.Subscriber.Topic, m.cfg.Subscriber.QoS, m.cfg.Subscriber.NetCond))

	last := "n/a"
	if m.haveLatency {
		last = fmt.Sprintf("%dms", m.lastLatency)
	}
	counters := counterStyle.Render(fmt.Sprintf("received %d/%d", m.received, m.cfg.Shared.TotalPackets)) +
		"  " + alertStyle.Render(fmt.Sprintf("disconnects %d", m.disconnects)) +
		"  " + counterStyle.Render("last latency "+last)

	footer := footerStyle.Render(wordwrap.String(
		"press q to quit; the sample file and report are written on exit", m.width))

	return header + "\n" + counters + "\n\n" + m.tbl.View() + "\n" + footer + "\n"
}
