package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/martinemde/simplecoder/coder"
)

var (
	doneStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(9)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(res *coder.Result) string {
	title := doneStyle.Render("requirements met")
	if res.Outcome == coder.OutcomeBudgetExhausted {
		title = warnStyle.Render("epoch budget exhausted")
	}

	path := res.Path
	if path == "" {
		path = "(not written)"
	}
	rows := []string{
		title,
		"",
		row("target", res.Target),
		row("path", path),
		row("epochs", fmt.Sprintf("%d", res.Epoch+1)),
		row("tokens", fmt.Sprintf("%d in / %d out", res.Usage.InputTokens, res.Usage.OutputTokens)),
		row("run", res.RunID),
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// formatEvent renders a progress line, or "" for events not shown.
func formatEvent(ev coder.Event) string {
	switch ev.Kind {
	case coder.EventEpochStart:
		return fmt.Sprintf("epoch %d", ev.Epoch)
	case coder.EventBlockExtracted:
		return fmt.Sprintf("  code block (%v grammar)", ev.Data["grammar"])
	case coder.EventFreeformOutput:
		return "  no code block"
	case coder.EventStopToken:
		return "  stop token received"
	case coder.EventPersisted:
		if wrote, _ := ev.Data["wrote"].(bool); !wrote {
			return "  nothing to write"
		}
		return fmt.Sprintf("  wrote %v", ev.Data["path"])
	case coder.EventPersistDeclined:
		return fmt.Sprintf("  not written: %v", ev.Data["reason"])
	case coder.EventBudgetExhausted:
		return "  epoch budget exhausted"
	}
	return ""
}
