package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rdvline/booking-server/internal/observability/metrics"
	"github.com/rdvline/booking-server/pkg/logging"
)

// Handler handles POST /book_appointment requests from the voice agent.
type Handler struct {
	provider CalendarProvider
	capacity int
	slotDur  time.Duration
	loc      *time.Location
	authURL  string
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
}

// HandlerConfig configures the booking Handler.
type HandlerConfig struct {
	Provider CalendarProvider
	// Capacity is the number of parallel appointments a slot can absorb.
	Capacity int
	// SlotDuration is the length of the interval checked and booked.
	SlotDuration time.Duration
	// Location is the zone used for naive timestamps and created events.
	Location *time.Location
	// AuthStartURL is returned as a hint when upstream credentials are missing.
	AuthStartURL string
	Logger       *logging.Logger
	Metrics      *metrics.BookingMetrics
}

// NewHandler creates a new booking handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 3
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{
		provider: cfg.Provider,
		capacity: cfg.Capacity,
		slotDur:  cfg.SlotDuration,
		loc:      cfg.Location,
		authURL:  cfg.AuthStartURL,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// BookAppointment is the HTTP handler for POST /book_appointment. API key
// authentication happens in middleware before this runs.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "bad_json")
		return
	}
	h.logger.Debug("booking payload received", "raw", string(body))

	rec, err := ParseRecord(body)
	if err != nil || len(rec) == 0 {
		h.logger.Info("booking rejected: unparseable or empty body")
		h.fail(w, http.StatusBadRequest, "bad_json")
		return
	}

	client, err := h.provider.Calendar(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			h.logger.Warn("booking rejected: calendar not connected")
			h.metrics.ObserveBooking("not_authenticated")
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error:   "not_authenticated",
				AuthURL: h.authURL,
			})
			return
		}
		h.upstreamFailure(w, err)
		return
	}

	appt := AppointmentFromRecord(rec)
	if appt.StartTime == "" {
		h.logger.Info("booking rejected: no start time in payload")
		h.fail(w, http.StatusBadRequest, "missing_start_time")
		return
	}

	start, err := parseStartTime(appt.StartTime, h.loc)
	if err != nil {
		h.logger.Info("booking rejected: unparseable start time", "start_time", appt.StartTime)
		h.fail(w, http.StatusBadRequest, "invalid_date_format")
		return
	}
	end := start.Add(h.slotDur)

	listStarted := time.Now()
	occupancy, err := client.CountOverlapping(ctx, start, end)
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.metrics.ObserveCalendarLatency("list", time.Since(listStarted).Seconds())
	h.metrics.ObserveOccupancy(occupancy)

	if occupancy >= h.capacity {
		h.logger.Info("booking rejected: slot full",
			"requested_time", appt.StartTime,
			"occupancy", occupancy,
			"capacity", h.capacity,
		)
		h.metrics.ObserveBooking("slot_full")
		writeJSON(w, http.StatusConflict, slotFullResponse{
			Error:         "slot_full",
			Message:       fmt.Sprintf("Ce créneau est complet (%d/%d). Merci de proposer un autre horaire.", occupancy, h.capacity),
			NumExisting:   occupancy,
			MaxCapacity:   h.capacity,
			RequestedTime: start.In(h.loc).Format(time.RFC3339),
		})
		return
	}

	insertStarted := time.Now()
	created, err := client.CreateEvent(ctx, buildEvent(appt, start, end, h.loc))
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.metrics.ObserveCalendarLatency("insert", time.Since(insertStarted).Seconds())

	h.logger.Info("booking created",
		"event_id", created.ID,
		"customer", appt.CustomerName,
		"service", appt.ServiceType,
		"start", start.In(h.loc).Format(time.RFC3339),
	)
	h.metrics.ObserveBooking("created")
	writeJSON(w, http.StatusOK, successResponse{
		OK:        true,
		Message:   fmt.Sprintf("Rendez-vous confirmé le %s", start.In(h.loc).Format("02/01/2006 à 15:04")),
		EventID:   created.ID,
		EventLink: created.Link,
	})
}

func (h *Handler) fail(w http.ResponseWriter, status int, code string) {
	h.metrics.ObserveBooking(code)
	writeJSON(w, status, errorResponse{Error: code})
}

// upstreamFailure surfaces the raw calendar error to the caller. The agent
// reads it back to the operator, so the message is intentionally verbatim.
func (h *Handler) upstreamFailure(w http.ResponseWriter, err error) {
	h.logger.Error("calendar call failed", "error", err)
	h.metrics.ObserveBooking("calendar_failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "calendar_failed",
		Details: err.Error(),
	})
}

// naiveLayouts are the zone-less ISO 8601 shapes the agent produces, down to
// minute precision and bare dates. All are interpreted in the configured zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseStartTime accepts RFC 3339 (a trailing Z reads as UTC) and falls back
// to zone-less timestamps interpreted in loc.
func parseStartTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// buildEvent assembles the calendar event for a booking. The phone line is
// dropped when the agent never collected one, and empty notes are omitted.
func buildEvent(appt Appointment, start, end time.Time, loc *time.Location) EventRequest {
	lines := []string{"Client: " + appt.CustomerName}
	if appt.Phone != DefaultPhone {
		lines = append(lines, "Téléphone: "+appt.Phone)
	}
	if appt.Notes != "" {
		lines = append(lines, "Notes: "+appt.Notes)
	}
	return EventRequest{
		Summary:     fmt.Sprintf("RDV %s - %s", appt.ServiceType, appt.CustomerName),
		Description: strings.Join(lines, "\n"),
		Start:       start,
		End:         end,
		TimeZone:    loc.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
