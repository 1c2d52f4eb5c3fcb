package entity

// Role constants for User
const (
	RoleEmployee       = "employee"
	RoleFinanceManager = "finance_manager"
	RoleAdmin          = "admin"
)

// Status constants for Trip
const (
	StatusDraft             = "draft"
	StatusPendingReview     = "pending_review"
	StatusApproved          = "approved"
	StatusApprovedException = "approved_exception"
	StatusDenied            = "denied"
)

// Item type constants for TripItem
const (
	ItemTypeFlight    = "flight"
	ItemTypeHotel     = "hotel"
	ItemTypeMeal      = "meal"
	ItemTypeTransport = "transport"
)

// Violation code constants
const (
	CodeBusinessClass = "BUSINESS_CLASS"
	CodeHotelCap      = "HOTEL_CAP"
	CodeMealCap       = "MEAL_CAP"
	CodePreapproval   = "PREAPPROVAL"
)

// Violation severity constants
const (
	SeverityWarning = "warning"
	SeverityBlocker = "blocker"
)

// Decision constants for Approval
const (
	DecisionApproved          = "approved"
	DecisionApprovedException = "approved_exception"
	DecisionDenied            = "denied"
)

// CabinEconomy is the only cabin class permitted when a policy is
// economy-only.
const CabinEconomy = "economy"

// DateLayout is the fixed textual form for calendar dates.
const DateLayout = "2006-01-02"
