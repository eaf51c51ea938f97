package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tilecraft/atlas/pkg/pyramid"
)

// progressMsg carries a pipeline progress snapshot into the TUI.
type progressMsg pyramid.Progress

// generateDoneMsg signals that generation finished.
type generateDoneMsg struct {
	hash string
	err  error
}

// generateModel is the bubbletea model for live pyramid generation
// progress: a bar with tile and zoom-level counters.
type generateModel struct {
	image    string
	progress pyramid.Progress
	hash     string
	err      error
	quitting bool
	cancel   func()
}

func newGenerateModel(image string, cancel func()) generateModel {
	return generateModel{image: image, cancel: cancel}
}

func (m generateModel) Init() tea.Cmd {
	return nil
}

func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			m.quitting = true
			return m, nil // wait for the pipeline to unwind
		}
	case progressMsg:
		m.progress = pyramid.Progress(msg)
		return m, nil
	case generateDoneMsg:
		m.hash = msg.hash
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

const barWidth = 32

func (m generateModel) View() string {
	if m.hash != "" || m.err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Generating tiles"))
	b.WriteString(StyleDim.Render("  " + m.image))
	b.WriteString("\n\n")

	p := m.progress
	filled := 0
	if p.TotalTiles > 0 {
		filled = p.TilesGenerated * barWidth / p.TotalTiles
	}
	bar := styleBarFill.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", barWidth-filled))

	b.WriteString(fmt.Sprintf("  %s %3.0f%%\n", bar, p.PercentComplete))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  level %d/%d · %d/%d tiles",
		p.CurrentZoomIndex+1, p.TotalZoomLevels, p.TilesGenerated, p.TotalTiles)))
	b.WriteString("\n\n")
	if m.quitting {
		b.WriteString(StyleWarning.Render("  cancelling..."))
	} else {
		b.WriteString(StyleDim.Render("  q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}
