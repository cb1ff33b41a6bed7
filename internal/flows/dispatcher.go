package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/fourteentrees/flow-gateway/internal/metrics"
	"github.com/fourteentrees/flow-gateway/internal/utils"
	"go.uber.org/zap"
)

// Handler owns a fixed set of screens of one flow. Handle reports handled=false
// when the request is not for it; a handled request with a nil payload leaves
// the response empty.
type Handler interface {
	Flow() FlowID
	Screens() []Screen
	Handle(ctx context.Context, req *Request) (*Payload, bool, error)
}

// SelectionHandler claims requests by a data field rather than by screen.
type SelectionHandler interface {
	HandleSelection(ctx context.Context, req *Request) (*Payload, bool, error)
}

// Initializer picks the first screen of a flow opened with action INIT.
type Initializer interface {
	Resolve(ctx context.Context, flowToken string) (*Payload, error)
}

const labelUnknown = "unknown"

type Dispatcher struct {
	init      Initializer
	owners    map[Screen]Handler
	selectors []SelectionHandler
}

// NewDispatcher indexes handlers by screen. Handlers are registered in order and
// any that also implement SelectionHandler are offered unclaimed screens in that order.
func NewDispatcher(init Initializer, handlers ...Handler) (*Dispatcher, error) {
	d := &Dispatcher{
		init:   init,
		owners: make(map[Screen]Handler),
	}
	for _, h := range handlers {
		for _, screen := range h.Screens() {
			if prev, ok := d.owners[screen]; ok {
				return nil, fmt.Errorf("%w: %s claimed by %s and %s", ErrScreenConflict, screen, prev.Flow(), h.Flow())
			}
			d.owners[screen] = h
		}
		if s, ok := h.(SelectionHandler); ok {
			d.selectors = append(d.selectors, s)
		}
	}
	return d, nil
}

// Owner returns the flow owning screen.
func (d *Dispatcher) Owner(screen Screen) (FlowID, bool) {
	h, ok := d.owners[screen]
	if !ok {
		return "", false
	}
	return h.Flow(), true
}

// Route produces the plaintext response for a decrypted request.
func (d *Dispatcher) Route(ctx context.Context, req *Request) (*Response, error) {
	action, screen := d.exchangeLabels(req)
	if err := req.Validate(); err != nil {
		metrics.Prom.ObserveExchange(action, screen, "invalid")
		return nil, err
	}

	payload, err := d.route(ctx, req)
	if err != nil {
		metrics.Prom.ObserveExchange(action, screen, "error")
		return nil, err
	}
	metrics.Prom.ObserveExchange(action, screen, "ok")

	if payload == nil {
		payload = emptyPayload()
	}
	if payload.Data == nil {
		payload.Data = map[string]any{}
	}
	return &Response{
		Version: req.Version,
		Screen:  payload.Screen,
		Data:    payload.Data,
	}, nil
}

func (d *Dispatcher) route(ctx context.Context, req *Request) (*Payload, error) {
	switch req.Action {
	case ActionPing:
		return &Payload{Data: map[string]any{"status": "active"}}, nil

	case ActionInit:
		if d.init == nil {
			return emptyPayload(), nil
		}
		return d.init.Resolve(ctx, req.FlowToken)

	case ActionDataExchange, ActionBack:
		if h, ok := d.owners[req.Screen]; ok {
			payload, handled, err := h.Handle(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("%s flow at %s: %w", h.Flow(), req.Screen, err)
			}
			if handled {
				return payload, nil
			}
		}

		for _, s := range d.selectors {
			payload, handled, err := s.HandleSelection(ctx, req)
			if err != nil {
				return nil, err
			}
			if handled {
				return payload, nil
			}
		}

		utils.Zlog.Warn("Unhandled flow screen",
			zap.String("screen", string(req.Screen)),
			zap.Error(ErrUnknownScreen))
		return emptyPayload(), nil

	default:
		utils.Zlog.Warn("Unknown flow action", zap.String("action", string(req.Action)))
		return emptyPayload(), nil
	}
}

// exchangeLabels bounds metric label values to registered actions and screens;
// anything else the client sends is reported as "unknown".
func (d *Dispatcher) exchangeLabels(req *Request) (string, string) {
	action := labelUnknown
	switch req.Action {
	case ActionPing, ActionInit, ActionDataExchange, ActionBack:
		action = string(req.Action)
	}

	screen := labelUnknown
	if req.Screen == "" {
		screen = ""
	} else if _, ok := d.owners[req.Screen]; ok {
		screen = string(req.Screen)
	}
	return action, screen
}

// IsCollaboratorFailure reports whether err came from an external service.
func IsCollaboratorFailure(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
