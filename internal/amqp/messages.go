package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Events carried on the meal sync queue.
const (
	EventMealCreated = "meal.created"
	EventMealUpdated = "meal.updated"
	EventMealDeleted = "meal.deleted"
)

// MealSyncMessage tells the worker which meal to export. The worker loads
// the current row itself, so only the id and version travel. Deletes carry
// the year instead, since the row is gone and the year picks the tab.
type MealSyncMessage struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Year      int       `json:"year,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMealSyncMessage(event string, id, version int64) *MealSyncMessage {
	return &MealSyncMessage{
		Event:     event,
		ID:        id,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func NewMealDeletedMessage(id int64, year int) *MealSyncMessage {
	return &MealSyncMessage{
		Event:     EventMealDeleted,
		ID:        id,
		Year:      year,
		Timestamp: time.Now().UTC(),
	}
}

func (m *MealSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MealSyncMessageFromJSON decodes and checks a message body.
func MealSyncMessageFromJSON(data []byte) (*MealSyncMessage, error) {
	var msg MealSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case EventMealCreated, EventMealUpdated:
	case EventMealDeleted:
		if msg.Year <= 0 {
			return nil, fmt.Errorf("delete message for meal %d has no year", msg.ID)
		}
	case "":
		msg.Event = EventMealCreated
	default:
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid meal id %d", msg.ID)
	}
	return &msg, nil
}
