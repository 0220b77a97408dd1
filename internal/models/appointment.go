package models

import (
	"strings"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Valid reports whether s is one of the four enumerated statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// StatusFilter selects which server-side subset of appointments is fetched.
// Unlike the time window it is not a client-side re-filter; the backend does
// the narrowing.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterConfirmed StatusFilter = "confirmed"
	FilterCancelled StatusFilter = "cancelled"
	FilterCompleted StatusFilter = "completed"
)

// ParseStatusFilter normalizes a raw filter value. An empty value means all.
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	f := StatusFilter(strings.ToLower(raw))
	switch f {
	case "":
		return FilterAll, true
	case FilterAll, FilterPending, FilterConfirmed, FilterCancelled, FilterCompleted:
		return f, true
	}
	return "", false
}

// Clinic is the embedded clinic reference carried on each appointment.
// Display-only; the clinic record itself is owned by the backend.
type Clinic struct {
	Name      string `json:"name"`
	ContactNo string `json:"contactNo"`
	Address   string `json:"address"`
}

// Appointment mirrors the record owned by the appointment backend. The portal
// reads it, edits a subset of its fields and posts the edits back; it never
// owns the record.
//
// AppointmentDate stays a string because the backend emits either a bare date
// or a datetime, and malformed values must degrade in display rather than
// fail decoding.
type Appointment struct {
	ID                 string            `json:"id"`
	PatientID          string            `json:"patientId"`
	PatientName        string            `json:"patientName"`
	PatientContactNo   string            `json:"patientContactNo"`
	AppointmentDate    string            `json:"appointmentDate"`
	Status             AppointmentStatus `json:"status"`
	MedicalRequirement string            `json:"medicalRequirement,omitempty"`
	Remarks            string            `json:"remarks,omitempty"`
	ClinicReportURL    string            `json:"clinicReportUrl,omitempty"`
	Clinic             Clinic            `json:"clinic"`
}

// dateLayouts are the formats the backend is known to emit, most precise
// first. The 16-character layout matches a datetime-local form value.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseAppointmentDate parses a raw appointment date in the given location.
func ParseAppointmentDate(raw string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DateIn parses the appointment date in the given location.
func (a Appointment) DateIn(loc *time.Location) (time.Time, error) {
	return ParseAppointmentDate(a.AppointmentDate, loc)
}

// HasTime reports whether the appointment date carries a time component.
func (a Appointment) HasTime() bool {
	return strings.Contains(a.AppointmentDate, "T")
}

// DraftDate returns the date seeded into an edit draft, truncated to minute
// precision when a time component is present, matching what the date input
// control accepts.
func (a Appointment) DraftDate() string {
	if a.HasTime() && len(a.AppointmentDate) > 16 {
		return a.AppointmentDate[:16]
	}
	return a.AppointmentDate
}

// DisplayDate formats the appointment date for rendering. Unparseable dates
// degrade to "N/A" instead of erroring.
func (a Appointment) DisplayDate() string {
	t, err := a.DateIn(time.Local)
	if err != nil {
		return "N/A"
	}
	if a.HasTime() {
		return t.Format("Jan 2, 2006 03:04 PM")
	}
	return t.Format("Jan 2, 2006")
}
