package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the application model: the decoded artifact list on the left
// and the selected artifact's detail lines on the right. The browser is
// read-only; every artifact is decoded once at startup.
type Model struct {
	artifacts []artifact
	cursor    int
	width     int
	height    int
}

// NewModel decodes each path up front and returns the browser model.
func NewModel(paths []string) Model {
	m := Model{}
	for _, p := range paths {
		m.artifacts = append(m.artifacts, loadArtifact(p))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.artifacts)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.artifacts) - 1
		}
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.artifacts) == 0 {
		return errorStyle.Render("no artifacts loaded")
	}

	var list strings.Builder
	for i, a := range m.artifacts {
		line := fmt.Sprintf("[%s] %s", a.Kind, a.Path)
		if a.Err != nil {
			line = fmt.Sprintf("[!] %s", a.Path)
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		list.WriteString(line)
		list.WriteString("\n")
	}

	sel := m.artifacts[m.cursor]
	var detail strings.Builder
	if sel.Err != nil {
		detail.WriteString(errorStyle.Render(sel.Err.Error()))
	} else {
		if sel.Summary != "" {
			detail.WriteString(sel.Summary)
			detail.WriteString("\n\n")
		}
		for _, line := range sel.Detail {
			detail.WriteString(line)
			detail.WriteString("\n")
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Render(list.String()),
		detailStyle.Render(detail.String()),
	)
	status := statusStyle.Render(fmt.Sprintf("%d/%d  ↑/↓ select  q quit", m.cursor+1, len(m.artifacts)))
	return headerStyle.Render("artifactview") + "\n" + body + "\n" + status
}
