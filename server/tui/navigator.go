package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Navigator queues activated note ids for the bubbletea loop. Node
// activation happens inside Update, so NavigateToNote must never block.
type Navigator struct {
	ids chan string
}

// NewNavigator returns a navigator holding up to 16 pending activations.
func NewNavigator() *Navigator {
	return &Navigator{ids: make(chan string, 16)}
}

// NavigateToNote queues noteID, dropping it when the queue is full.
func (n *Navigator) NavigateToNote(_ context.Context, noteID string) error {
	select {
	case n.ids <- noteID:
	default:
	}
	return nil
}

// NavigateMsg reports an activated note.
type NavigateMsg struct {
	NoteID string
}

func (n *Navigator) wait() tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{NoteID: <-n.ids}
	}
}
