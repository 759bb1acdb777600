package testutil

import "time"

// FiredEvent records an event received by MockHAServer
type FiredEvent struct {
	Timestamp time.Time
	EventType string
	Data      map[string]interface{}
}

// FilterEvents filters fired events by event type
func FilterEvents(events []FiredEvent, eventType string) []FiredEvent {
	var filtered []FiredEvent
	for _, event := range events {
		if event.EventType == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// FindEventWithData finds the most recent event of eventType whose data
// holds dataValue under dataKey.
func FindEventWithData(events []FiredEvent, eventType, dataKey string, dataValue interface{}) *FiredEvent {
	for i := len(events) - 1; i >= 0; i-- {
		event := events[i]
		if event.EventType == eventType {
			if val, ok := event.Data[dataKey]; ok && val == dataValue {
				return &event
			}
		}
	}
	return nil
}
