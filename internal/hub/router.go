package hub

import (
	"chatline/backend/internal/metrics"

	"go.uber.org/zap"
)

// Router fans events out to every live handle of a user. Delivery is
// best-effort and at most once per handle.
type Router struct {
	registry Registry
	log      *zap.Logger
}

// NewRouter creates a router over registry.
func NewRouter(registry Registry, log *zap.Logger) *Router {
	return &Router{
		registry: registry,
		log:      log.With(zap.String("component", "router")),
	}
}

// Deliver pushes event to each of the user's handles and returns how many
// accepted it. A handle that refuses the push is dropped from the registry
// and closed; the failure never reaches the caller.
func (r *Router) Deliver(userID string, event Event) int {
	handles := r.registry.HandlesFor(userID)
	if len(handles) == 0 {
		return 0
	}

	payload, err := event.Encode()
	if err != nil {
		r.log.Error("encode event", zap.String("event", event.Name), zap.Error(err))
		return 0
	}

	delivered := 0
	for _, h := range handles {
		// Send never blocks, so one slow handle cannot hold up the rest.
		if err := h.Send(payload); err != nil {
			metrics.Deliveries.WithLabelValues(event.Name, "failed").Inc()
			r.log.Warn("delivery failed, dropping handle",
				zap.String("event", event.Name),
				zap.String("user_id", userID),
				zap.String("handle_id", h.ID()),
				zap.Error(err))
			r.registry.Unregister(h)
			h.Close()
			continue
		}
		metrics.Deliveries.WithLabelValues(event.Name, "delivered").Inc()
		delivered++
	}
	return delivered
}

// DeliverEach delivers event to every listed user once, skipping repeats.
func (r *Router) DeliverEach(userIDs []string, event Event) int {
	seen := make(map[string]struct{}, len(userIDs))
	delivered := 0
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		delivered += r.Deliver(id, event)
	}
	return delivered
}
