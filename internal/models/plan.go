package models

// PlanStatus is the lifecycle of a day plan. Transitions are time based and
// driven by the backend.
type PlanStatus string

const (
	PlanStatusCurrent  PlanStatus = "current"
	PlanStatusUpcoming PlanStatus = "upcoming"
	PlanStatusPast     PlanStatus = "past"
)

// Valid reports whether s is a known status.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusCurrent, PlanStatusUpcoming, PlanStatusPast:
		return true
	}
	return false
}

// Stop is a single entry of a day plan.
type Stop struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name" validate:"required"`
	Category          Category `json:"type" validate:"required,oneof=Food Place"`
	TimeWindow        string   `json:"time_window,omitempty"`
	QuickInfo         string   `json:"quick_info,omitempty"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	CostEstimate      string   `json:"cost_estimate,omitempty"`
}

// DayPlan is an itinerary stored by the backend. The client never assigns its ID.
type DayPlan struct {
	ID            string     `json:"id" validate:"required"`
	UserID        string     `json:"user_id" validate:"required"`
	Title         string     `json:"title" validate:"required"`
	City          string     `json:"city"`
	Companion     Companion  `json:"going_with" validate:"required,oneof=partner family friends business solo"`
	Focus         Focus      `json:"focus" validate:"required,oneof=food places both"`
	Date          *Timestamp `json:"date,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Status        PlanStatus `json:"status" validate:"required,oneof=current upcoming past"`
	Stops         []Stop     `json:"stops" validate:"dive"`
	GeneratedByAI bool       `json:"generated_by_ai"`
	CreatedAt     Timestamp  `json:"created_at"`
	UpdatedAt     Timestamp  `json:"updated_at"`
}

// NewDayPlan is the create-day-plan payload.
type NewDayPlan struct {
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	City          string    `json:"city"`
	Companion     Companion `json:"going_with"`
	Focus         Focus     `json:"focus"`
	Duration      string    `json:"duration,omitempty"`
	Stops         []Stop    `json:"stops"`
	GeneratedByAI bool      `json:"generated_by_ai"`
}
