package goSession

import "context"

// ChannelNavigator delivers SessionEnded events on a buffered channel. When
// the buffer is full the event is dropped; a pending event already tells the
// UI to leave protected content.
type ChannelNavigator struct {
	events chan SessionEnded
}

func NewChannelNavigator(buffer int) *ChannelNavigator {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNavigator{events: make(chan SessionEnded, buffer)}
}

func (n *ChannelNavigator) SessionEnded(_ context.Context, event SessionEnded) {
	select {
	case n.events <- event:
	default:
	}
}

// Events returns the receive side of the channel.
func (n *ChannelNavigator) Events() <-chan SessionEnded {
	return n.events
}

type noopNavigator struct{}

func (noopNavigator) SessionEnded(context.Context, SessionEnded) {}
