package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vsrinivas/fuchsia-sub355/transport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type dumpTab int

const (
	tabHeader dumpTab = iota
	tabHex
	tabEnvelopes
)

var tabNames = []string{"Header", "Hex", "Envelopes"}

type dumpModel struct {
	err      error
	filename string
	hexInput bool
	noHeader bool
	wire     []byte
	header   *transport.MessageHeader
	body     []byte
	tab      dumpTab
	view     viewport.Model
	ready    bool
}

type loadedMsg struct {
	err    error
	wire   []byte
	header *transport.MessageHeader
	body   []byte
}

func newDumpModel(filename string, hexInput, noHeader bool) *dumpModel {
	return &dumpModel{filename: filename, hexInput: hexInput, noHeader: noHeader}
}

func (m *dumpModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *dumpModel) loadFile() tea.Msg {
	wire, err := loadMessage(m.filename, m.hexInput)
	if err != nil {
		return loadedMsg{err: err}
	}
	msg := loadedMsg{wire: wire, body: wire}
	if !m.noHeader {
		var hdr transport.MessageHeader
		if herr := hdr.Unmarshal(wire); herr != nil {
			return loadedMsg{err: herr}
		}
		msg.header = &hdr
		msg.body = wire[transport.HeaderSize:]
	}
	return msg
}

func (m *dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab", "right", "l":
			m.tab = (m.tab + 1) % dumpTab(len(tabNames))
			m.refreshContent()

		case "shift+tab", "left", "h":
			m.tab = (m.tab + dumpTab(len(tabNames)) - 1) % dumpTab(len(tabNames))
			m.refreshContent()
		}

	case tea.WindowSizeMsg:
		headerHeight := 4
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - headerHeight
		}
		m.refreshContent()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.wire = msg.wire
		m.header = msg.header
		m.body = msg.body
		m.refreshContent()
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *dumpModel) refreshContent() {
	if !m.ready || m.wire == nil {
		return
	}
	switch m.tab {
	case tabHeader:
		m.view.SetContent(m.headerContent())
	case tabHex:
		m.view.SetContent(hex.Dump(m.body))
	case tabEnvelopes:
		m.view.SetContent(scanEnvelopes(m.body))
	}
	m.view.GotoTop()
}

func (m *dumpModel) headerContent() string {
	var b strings.Builder
	if m.header == nil {
		b.WriteString("No message header (-no-header)\n\n")
	} else {
		row := func(name, value string) {
			b.WriteString(fieldStyle.Render(fmt.Sprintf("  %-8s", name)))
			b.WriteString(valueStyle.Render(value))
			b.WriteString("\n")
		}
		row("txid", fmt.Sprintf("0x%08x", m.header.Txid))
		row("flags", fmt.Sprintf("%02x %02x %02x", m.header.Flags[0], m.header.Flags[1], m.header.Flags[2]))
		row("magic", fmt.Sprintf("0x%02x", m.header.Magic))
		row("ordinal", fmt.Sprintf("0x%016x", m.header.Ordinal))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %d bytes total, %d body\n", len(m.wire), len(m.body))
	return b.String()
}

func (m *dumpModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.wire == nil || !m.ready {
		return "Loading message..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Wire Dump"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")

	for i, name := range tabNames {
		if dumpTab(i) == m.tab {
			b.WriteString(activeTabStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/←/→ switch view • ↑/↓ scroll • q quit"))
	return b.String()
}

func runInteractive(filename string, hexInput, noHeader bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newDumpModel(filename, hexInput, noHeader), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
