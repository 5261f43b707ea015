package usecase

import (
	"context"
	"errors"
	"fmt"

	"HydroFlow/internal/domain/models"
)

// ErrUnknownEvent is returned by Dispatch for events it cannot route.
var ErrUnknownEvent = errors.New("unknown event")

// EventType tags the payload carried by an Event.
type EventType string

const (
	EventTick           EventType = "tick"
	EventBarClose       EventType = "bar_close"
	EventPositionClosed EventType = "position_closed"
)

// Event is the tagged union accepted by Engine.Dispatch. Exactly one payload matches Type.
type Event struct {
	Type   EventType
	Tick   *models.Tick
	Bar    *models.Bar
	Closed *models.PositionClosed
}

func TickEvent(t models.Tick) Event { return Event{Type: EventTick, Tick: &t} }

func BarCloseEvent(b models.Bar) Event { return Event{Type: EventBarClose, Bar: &b} }

func PositionClosedEvent(c models.PositionClosed) Event {
	return Event{Type: EventPositionClosed, Closed: &c}
}

// Dispatch routes ev to the matching handler.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	switch {
	case ev.Type == EventTick && ev.Tick != nil:
		return e.OnTick(ctx, *ev.Tick)
	case ev.Type == EventBarClose && ev.Bar != nil:
		return e.OnBarClose(ctx, *ev.Bar)
	case ev.Type == EventPositionClosed && ev.Closed != nil:
		e.OnPositionClosed(ctx, *ev.Closed)
		return nil
	default:
		return fmt.Errorf("dispatch %q: %w", ev.Type, ErrUnknownEvent)
	}
}
