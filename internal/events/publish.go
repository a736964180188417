package events

import (
	"ilds/internal/congestion"
	"ilds/internal/scheduling"
)

var outcomeTypes = map[scheduling.OutcomeKind]string{
	scheduling.OutcomeScheduled:      DeliveryScheduled,
	scheduling.OutcomeSkipped:        DeliverySkipped,
	scheduling.OutcomeNoVehicle:      DeliveryFailed,
	scheduling.OutcomeDeadlineMissed: DeliveryFailed,
	scheduling.OutcomeInvalid:        DeliveryFailed,
}

// PublishRound emits one event per outcome on TopicDeliveries.
func PublishRound(b Broker, round scheduling.Round) {
	for _, o := range round.Outcomes {
		data := map[string]any{
			"roundId":   round.ID,
			"requestId": o.RequestID,
			"outcome":   string(o.Kind),
		}
		if o.VehicleID != "" {
			data["vehicleId"] = o.VehicleID
		}
		if o.Reason != "" {
			data["reason"] = o.Reason
		}
		if o.Route != nil && o.Route.Found() {
			data["distance"] = o.Route.TotalDistance
			data["time"] = o.Route.TotalTime
		}
		b.Publish(TopicDeliveries, Event{Type: outcomeTypes[o.Kind], Data: data})
	}
}

// PublishSweep emits a congestion.adapted event on TopicNetwork.
func PublishSweep(b Broker, s congestion.Sweep) {
	b.Publish(TopicNetwork, Event{Type: CongestionAdapted, Data: map[string]any{
		"updated":    s.Updated,
		"failed":     s.Failed,
		"durationMs": s.Duration.Milliseconds(),
	}})
}

// PublishNetworkChange emits a network.changed event describing a mutation.
func PublishNetworkChange(b Broker, op string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["op"] = op
	b.Publish(TopicNetwork, Event{Type: NetworkChanged, Data: data})
}
