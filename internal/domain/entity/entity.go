package entity

import "time"

// User is an actor known to the system. Users are provisioned out-of-band
// and never mutated here.
type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsReviewer reports whether the user may review trips and read analytics.
func (u *User) IsReviewer() bool {
	return u.Role == RoleFinanceManager || u.Role == RoleAdmin
}

// Policy is the set of expense limits in force. Exactly one policy is
// active at a time: the most recently created row. All monetary fields
// are integer cents.
type Policy struct {
	ID                    int64     `json:"id"`
	EconomyOnly           bool      `json:"economy_only"`
	HotelNightlyCapCents  int64     `json:"hotel_nightly_cap_cents"`
	MealDailyCapCents     int64     `json:"meal_daily_cap_cents"`
	PreapprovalOverCents  int64     `json:"preapproval_over_cents"`
	CreatedAt             time.Time `json:"created_at"`
}

// Trip is a travel request moving through the approval lifecycle.
// Department is denormalized from the owner at creation time.
type Trip struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Department  string    `json:"department"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"` // YYYY-MM-DD
	EndDate     string    `json:"end_date"`   // YYYY-MM-DD
	Purpose     string    `json:"purpose"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemMetadata is the type-tagged payload attached to a trip item. Only
// the fields relevant to the item's type are populated; the rest stay at
// their zero value and are omitted from the stored JSON.
type ItemMetadata struct {
	CabinClass       string `json:"cabin_class,omitempty"`        // flight
	NightlyRateCents int64  `json:"nightly_rate_cents,omitempty"` // hotel
	Nights           int    `json:"nights,omitempty"`             // hotel
	MealDate         string `json:"meal_date,omitempty"`          // meal, YYYY-MM-DD
	Notes            string `json:"notes,omitempty"`              // transport
}

// TripItem is a single expense line on a trip. Items are append-only while
// the trip is in draft and immutable afterwards.
type TripItem struct {
	ID          int64        `json:"id"`
	TripID      int64        `json:"trip_id"`
	ItemType    string       `json:"item_type"`
	Description string       `json:"description"`
	AmountCents int64        `json:"amount_cents"`
	Metadata    ItemMetadata `json:"metadata"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Violation is one policy breach found by an evaluation run. The stored
// set for a trip is replaced wholesale on every submission. PolicyID
// records which policy snapshot produced the row. ComputedCents and
// LimitCents are nil for categorical violations.
type Violation struct {
	ID            int64     `json:"id"`
	TripID        int64     `json:"trip_id"`
	PolicyID      int64     `json:"policy_id"`
	Code          string    `json:"code"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
	ComputedCents *int64    `json:"computed_cents,omitempty"`
	LimitCents    *int64    `json:"limit_cents,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsBlocker reports whether the violation prevents ordinary approval.
func (v *Violation) IsBlocker() bool {
	return v.Severity == SeverityBlocker
}

// Approval is one reviewer decision on a trip. The trail is append-only;
// the trip's status reflects only the most recent record.
type Approval struct {
	ID         int64     `json:"id"`
	TripID     int64     `json:"trip_id"`
	ReviewerID int64     `json:"reviewer_id"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
