package models

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
)

type ServiceType string

const (
	ServiceTour      ServiceType = "tour"
	ServicePackage   ServiceType = "package"
	ServiceVisa      ServiceType = "visa"
	ServiceTicket    ServiceType = "ticket"
	ServiceOKToBoard ServiceType = "ok_to_board"
	ServiceTransfer  ServiceType = "transfer"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTour, ServicePackage, ServiceVisa, ServiceTicket, ServiceOKToBoard, ServiceTransfer:
		return true
	}
	return false
}

// SingleTraveler reports whether the party collapses to one applicant
// (visa and OK-to-board applications are filed per person).
func (t ServiceType) SingleTraveler() bool {
	return t == ServiceVisa || t == ServiceOKToBoard
}

// NeedsSchedule reports whether a travel date is mandatory for this service.
func (t ServiceType) NeedsSchedule() bool {
	return t == ServiceTour || t == ServiceTransfer
}

type Booking struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`

	ServiceType  ServiceType `json:"service_type"`
	ServiceID    int64       `json:"service_id"`
	ServiceTitle string      `json:"service_title"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`

	BaseAmount     float64 `json:"base_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
	Currency       string  `json:"currency"`

	TravelDate     *time.Time `json:"travel_date,omitempty"`
	TravelTime     string     `json:"travel_time,omitempty"`
	PickupLocation string     `json:"pickup_location,omitempty"`

	Status       BookingStatus `json:"status"`
	PaymentState PaymentState  `json:"payment_status"`

	SpecialRequests string `json:"special_requests,omitempty"`
	AdminNotes      string `json:"admin_notes,omitempty"`

	// Payment trace. GatewayResponse is an opaque audit payload and is
	// never parsed by the service.
	GatewayName      string `json:"gateway_name,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
	GatewayResponse  string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Heads returns the total traveler count of the party.
func (b *Booking) Heads() int {
	return b.Adults + b.Children + b.Infants
}

// Payable reports whether a new payment attempt may be started.
func (b *Booking) Payable() bool {
	if b.Status == BookingCancelled || b.Status == BookingCompleted {
		return false
	}
	return b.PaymentState != PaymentCompleted
}

type TravelerType string

const (
	TravelerAdult  TravelerType = "adult"
	TravelerChild  TravelerType = "child"
	TravelerInfant TravelerType = "infant"
)

type Traveler struct {
	ID             int64        `json:"id"`
	BookingID      int64        `json:"booking_id"`
	Type           TravelerType `json:"type"`
	Title          string       `json:"title"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	DateOfBirth    *time.Time   `json:"date_of_birth,omitempty"`
	Nationality    string       `json:"nationality,omitempty"`
	PassportNumber string       `json:"passport_number,omitempty"`
	PassportExpiry *time.Time   `json:"passport_expiry,omitempty"`
}

type CreateBookingRequest struct {
	ServiceType string `json:"service_type" binding:"required"`
	ServiceID   int64  `json:"service_id" binding:"required"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerPhone string `json:"customer_phone" binding:"required"`

	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`

	Currency       string  `json:"currency,omitempty"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`

	TravelDate     string `json:"travel_date,omitempty"` // YYYY-MM-DD
	TravelTime     string `json:"travel_time,omitempty"`
	PickupLocation string `json:"pickup_location,omitempty"`

	SpecialRequests string `json:"special_requests,omitempty"`
}

type TravelerInput struct {
	Type           string `json:"type" binding:"required"`
	Title          string `json:"title,omitempty"`
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Nationality    string `json:"nationality,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	PassportExpiry string `json:"passport_expiry,omitempty"`
}

type AttachTravelersRequest struct {
	Travelers []TravelerInput `json:"travelers" binding:"required"`
}

// BookingAction is an admin-initiated lifecycle transition.
type BookingAction string

const (
	ActionConfirm  BookingAction = "confirm"
	ActionComplete BookingAction = "complete"
	ActionCancel   BookingAction = "cancel"
)

type UpdateBookingStatusRequest struct {
	Action        string  `json:"action" binding:"required"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

type BookingFilter struct {
	Status       string
	PaymentState string
	ServiceType  string
	From         *time.Time
	To           *time.Time
}

type BookingEvent struct {
	Type      string    `json:"type"`
	Reference string    `json:"reference"`
	Booking   *Booking  `json:"booking"`
	Timestamp time.Time `json:"timestamp"`
}

type EmailType string

const (
	EmailConfirmation EmailType = "confirmation"
	EmailReminder     EmailType = "reminder"
	EmailCancellation EmailType = "cancellation"
)

type NotifyRequest struct {
	EmailType string `json:"email_type" binding:"required"`
}
