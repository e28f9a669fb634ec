package domain

import "github.com/shopspring/decimal"

// ============================================================
// Reservations
// ============================================================

// ReservationStatus follows pending → confirmed → checked_in → checked_out,
// with cancelled reachable at any point. Transitions are not enforced.
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
	ReservationVisit      ReservationStatus = "visit"
)

// ReservationStatuses lists every status in display order.
var ReservationStatuses = []ReservationStatus{
	ReservationPending, ReservationConfirmed, ReservationCheckedIn,
	ReservationCheckedOut, ReservationCancelled, ReservationVisit,
}

func (s ReservationStatus) Valid() bool {
	for _, v := range ReservationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PaymentStatus of a reservation.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentOverdue  PaymentStatus = "overdue"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentRefunded:
		return true
	}
	return false
}

// ReservationSource is the channel a reservation came from.
type ReservationSource string

const (
	SourceManual     ReservationSource = "manual"
	SourceWhatsAppAI ReservationSource = "whatsapp_ai"
	SourceWebsite    ReservationSource = "website"
)

func (s ReservationSource) Valid() bool {
	switch s {
	case SourceManual, SourceWhatsAppAI, SourceWebsite:
		return true
	}
	return false
}

// Reservation is a stay booked at a property.
type Reservation struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenantId"`
	PropertyID    string            `json:"propertyId"`
	ClientID      string            `json:"clientId"`
	CheckIn       Timestamp         `json:"checkIn"`
	CheckOut      Timestamp         `json:"checkOut"`
	Guests        int               `json:"guests"`
	TotalPrice    decimal.Decimal   `json:"totalPrice"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Source        ReservationSource `json:"source"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     Timestamp         `json:"createdAt"`
}

// ApplyDefaults fills optional enum fields.
func (r *Reservation) ApplyDefaults() {
	if r.Status == "" {
		r.Status = ReservationPending
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
	if r.Source == "" {
		r.Source = SourceManual
	}
}

// ReservationRow is a reservation joined with its property and client.
type ReservationRow struct {
	Reservation
	PropertyName    string `json:"propertyName"`
	PropertyAddress string `json:"propertyAddress"`
	ClientName      string `json:"clientName"`
	ClientPhone     string `json:"clientPhone"`
	Nights          int    `json:"nights"`
	DatesValid      bool   `json:"datesValid"`
}

// ReservationInput is the create/update payload.
// totalAmount is accepted as an alias of totalPrice.
type ReservationInput struct {
	PropertyID    string            `json:"propertyId"`
	ClientID      string            `json:"clientId"`
	CheckIn       Timestamp         `json:"checkIn"`
	CheckOut      Timestamp         `json:"checkOut"`
	Guests        int               `json:"guests"`
	TotalPrice    *decimal.Decimal  `json:"totalPrice,omitempty"`
	TotalAmount   *decimal.Decimal  `json:"totalAmount,omitempty"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Source        ReservationSource `json:"source"`
	Notes         string            `json:"notes,omitempty"`
}

// Price resolves totalPrice/totalAmount, preferring totalPrice.
func (in *ReservationInput) Price() decimal.Decimal {
	switch {
	case in.TotalPrice != nil:
		return *in.TotalPrice
	case in.TotalAmount != nil:
		return *in.TotalAmount
	}
	return decimal.Zero
}

// ReservationStats are the KPI cards of the reservations screen.
type ReservationStats struct {
	Total            int                       `json:"total"`
	ByStatus         map[ReservationStatus]int `json:"byStatus"`
	ConfirmedRevenue decimal.Decimal           `json:"confirmedRevenue"`
	TotalNights      int                       `json:"totalNights"`
	AvgNightlyRate   decimal.Decimal           `json:"avgNightlyRate"`
	OccupancyPct     float64                   `json:"occupancyPct"`
}
