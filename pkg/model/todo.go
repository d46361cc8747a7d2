package model

import (
	"time"

	"goalengine/pkg/recurrence"
)

type Todo struct {
	ID          string `json:"id"`
	UserID      int    `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Urgency     int    `json:"urgency"`
	Importance  int    `json:"importance"`

	ActivityTitle string  `json:"activity_title,omitempty"`
	ContactID     *string `json:"contact_id,omitempty"`
	PlaceID       *string `json:"place_id,omitempty"`
	GoalID        *string `json:"goal_id,omitempty"`
	Tags          string  `json:"tags,omitempty"`

	WorkDate *time.Time `json:"work_date,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Done     bool       `json:"done"`

	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern recurrence.Pattern `json:"recurrence_pattern,omitempty"`
	RecurrenceConfig  *recurrence.Config `json:"recurrence_config,omitempty"`
	RecurrenceIndex   int                `json:"recurrence_index"`

	CreatedAt time.Time `json:"created_at"`
}

func (t Todo) Descriptor() recurrence.Descriptor {
	return recurrence.NewDescriptor(t.RecurrencePattern, t.RecurrenceConfig)
}
