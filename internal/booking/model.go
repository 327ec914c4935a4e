package booking

import (
	"context"
	"errors"
	"time"
)

// Defaults applied when the agent omits a field. The phone default doubles as
// a marker: it is left out of the event description.
const (
	DefaultCustomerName = "Client"
	DefaultServiceType  = "Prestation"
	DefaultPhone        = "Non fourni"
)

// Synonym priority lists per canonical field. First match in the payload
// wins; order is priority, not alphabetical.
var (
	customerNameKeys = []string{"customer_name", "nom", "name", "client", "nom_client", "full_name"}
	serviceTypeKeys  = []string{"service_type", "service", "prestation", "type_de_prestation", "soin"}
	phoneKeys        = []string{"phone", "telephone", "tel", "numero", "phone_number", "portable"}
	notesKeys        = []string{"notes", "note", "commentaire", "commentaires", "message", "remarques"}
	startTimeKeys    = []string{"start_time", "date_heure", "datetime", "debut", "start", "date_rdv"}
)

// Appointment is the normalized booking request derived from the inbound
// record. StartTime is the raw string as supplied; parsing happens later so
// the handler can report invalid_date_format separately from missing fields.
type Appointment struct {
	CustomerName string
	ServiceType  string
	Phone        string
	Notes        string
	StartTime    string
}

// AppointmentFromRecord extracts the canonical fields from a payload.
func AppointmentFromRecord(rec Record) Appointment {
	return Appointment{
		CustomerName: rec.Extract(customerNameKeys, DefaultCustomerName),
		ServiceType:  rec.Extract(serviceTypeKeys, DefaultServiceType),
		Phone:        rec.Extract(phoneKeys, DefaultPhone),
		Notes:        rec.Extract(notesKeys, ""),
		StartTime:    rec.Extract(startTimeKeys, ""),
	}
}

// EventRequest describes the calendar event to create for a booking.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// CreatedEvent is the upstream calendar's answer to a successful insert.
type CreatedEvent struct {
	ID   string
	Link string
}

// CalendarClient is the calendar operations the handler needs: one overlap
// count and one conditional insert per request.
type CalendarClient interface {
	// CountOverlapping returns the number of existing events whose interval
	// overlaps [start, end).
	CountOverlapping(ctx context.Context, start, end time.Time) (int, error)
	// CreateEvent inserts a new event.
	CreateEvent(ctx context.Context, req EventRequest) (*CreatedEvent, error)
}

// CalendarProvider builds a CalendarClient from whatever credentials are
// currently persisted. Returns ErrNotAuthenticated when the OAuth flow has
// not been completed yet.
type CalendarProvider interface {
	Calendar(ctx context.Context) (CalendarClient, error)
}

// ErrNotAuthenticated means no upstream calendar credentials are available.
var ErrNotAuthenticated = errors.New("calendar credentials not available")

// Response envelopes. Every outcome carries a stable ok/error pair.

type successResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	AuthURL string `json:"auth_url,omitempty"`
	Details string `json:"details,omitempty"`
}

type slotFullResponse struct {
	OK            bool   `json:"ok"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	NumExisting   int    `json:"num_existing"`
	MaxCapacity   int    `json:"max_capacity"`
	RequestedTime string `json:"requested_time"`
}
