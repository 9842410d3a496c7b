// Command artifactview is a read-only terminal browser over a set of
// decoded forensic artifacts: .lnk files, Task Scheduler job/XML
// definitions, and OST/PST headers, one per positional argument. Jumplist
// files are not decoded; they are listed with an error.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: artifactview <artifact-file>...")
		os.Exit(1)
	}

	m := NewModel(os.Args[1:])
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
