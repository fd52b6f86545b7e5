package render

import (
	"github.com/hrygo/notegraph/plugin/graph"
)

// Interaction is the pointer state machine. Exactly one of Idle, Hovering and
// Dragging is current; a drag never carries a hovered node.
type Interaction interface {
	interaction()
}

// Idle means no hover and no drag.
type Idle struct{}

// Hovering means the pointer rests on a node.
type Hovering struct {
	NodeID string
}

// Dragging means the pointer went down on empty space and pans the camera.
type Dragging struct {
	StartPointer graph.Vec
	StartPan     graph.Vec
}

func (Idle) interaction()     {}
func (Hovering) interaction() {}
func (Dragging) interaction() {}
