package flows

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	upcomingVisitLimit = 10
	visitResponse      = "Thank you for the site visit registration.!"
)

type VisitHandler struct {
	store VisitStore
	call  caller
	now   func() time.Time
}

func NewVisitHandler(store VisitStore, timeout time.Duration) *VisitHandler {
	return &VisitHandler{
		store: store,
		call:  caller{timeout: timeout},
		now:   time.Now,
	}
}

func (h *VisitHandler) Flow() FlowID { return FlowVisit }

func (h *VisitHandler) Screens() []Screen {
	return []Screen{
		ScreenVisitWelcome,
		ScreenVisitSelect,
		ScreenVisitDetails,
		ScreenVisitConfirm,
		ScreenVisitDone,
	}
}

func (h *VisitHandler) Handle(ctx context.Context, req *Request) (*Payload, bool, error) {
	switch req.Screen {
	case ScreenVisitWelcome:
		p, err := h.listVisits(ctx)
		return p, true, err
	case ScreenVisitSelect:
		p, err := h.selectVisit(ctx, req)
		return p, true, err
	case ScreenVisitDetails:
		return &Payload{Screen: ScreenVisitConfirm, Data: req.Data}, true, nil
	case ScreenVisitConfirm:
		p, err := h.register(ctx, req)
		return p, true, err
	case ScreenVisitDone:
		return emptyPayload(), true, nil
	}
	return nil, false, nil
}

func (h *VisitHandler) listVisits(ctx context.Context) (*Payload, error) {
	var upcoming []map[string]any
	err := h.call.do(ctx, "db", "get_upcoming_visits", func(ctx context.Context) error {
		visits, err := h.store.GetUpcomingVisits(ctx, h.now(), upcomingVisitLimit)
		if err != nil {
			return err
		}
		upcoming = make([]map[string]any, 0, len(visits))
		for _, v := range visits {
			upcoming = append(upcoming, map[string]any{
				"id":          strconv.FormatInt(v.ID, 10),
				"title":       v.Name,
				"description": fmt.Sprintf("On %s at site: %s", v.Date.Format(time.DateOnly), v.SiteName),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Payload{
		Screen: ScreenVisitSelect,
		Data:   map[string]any{"upcoming_visits": upcoming},
	}, nil
}

func (h *VisitHandler) selectVisit(ctx context.Context, req *Request) (*Payload, error) {
	visitID, err := strconv.ParseInt(req.String("selected_visit_id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: selected_visit_id must be numeric", ErrInvalidRequest)
	}

	var selected map[string]any
	err = h.call.do(ctx, "db", "get_visit", func(ctx context.Context) error {
		v, err := h.store.GetVisit(ctx, visitID)
		if err != nil {
			return err
		}
		date := v.Date.Format(time.DateOnly)
		selected = map[string]any{
			"id":          strconv.FormatInt(v.ID, 10),
			"title":       v.Name,
			"description": fmt.Sprintf("%s, On %s", v.SiteName, date),
			"visit_date":  date,
			"site_name":   v.SiteName,
			"type":        v.Type,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Payload{
		Screen: ScreenVisitDetails,
		Data:   map[string]any{"selected_visit": selected},
	}, nil
}

func (h *VisitHandler) register(ctx context.Context, req *Request) (*Payload, error) {
	visitID, err := strconv.ParseInt(req.String("visit_id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: visit_id must be numeric", ErrInvalidRequest)
	}
	name, email := req.String("visitor_name"), req.String("visitor_email")
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: visitor_name and visitor_email are required", ErrInvalidRequest)
	}

	err = h.call.do(ctx, "db", "register_visitor", func(ctx context.Context) error {
		return h.store.RegisterVisitor(ctx, visitID, name, email)
	})
	if err != nil {
		return nil, err
	}
	return &Payload{
		Screen: ScreenVisitDone,
		Data:   map[string]any{"response": visitResponse},
	}, nil
}
