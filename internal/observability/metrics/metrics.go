package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	bookingsTotal   *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
	slotOccupancy   prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Booking webhook requests by outcome",
		}, []string{"outcome"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "server",
			Name:      "calendar_call_seconds",
			Help:      "Latency of Google Calendar API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		slotOccupancy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "server",
			Name:      "slot_occupancy",
			Help:      "Existing events observed per requested slot",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.calendarLatency, m.slotOccupancy)
	return m
}

// ObserveBooking records the terminal outcome of a booking request
// (e.g. "created", "slot_full", "bad_json").
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCalendarLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.calendarLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveOccupancy(count int) {
	if m == nil {
		return
	}
	m.slotOccupancy.Observe(float64(count))
}
