// Package viewstate derives the lists the dashboard renders from the full
// fetched collections. Every derivation is a pure function of its inputs and
// an explicit clock; nothing here mutates the input or keeps hidden state, so
// the same inputs always produce the same output.
package viewstate

import (
	"sort"
	"strings"
	"time"

	"clinic-portal-server/internal/models"
)

// TimeWindow is the client-side re-filter applied to an already-fetched
// appointment set.
type TimeWindow string

const (
	WindowToday TimeWindow = "today"
	WindowWeek  TimeWindow = "week"
	WindowMonth TimeWindow = "month"
	WindowAll   TimeWindow = "all"
)

// ParseTimeWindow normalizes a raw window value. An empty value means all.
func ParseTimeWindow(raw string) (TimeWindow, bool) {
	w := TimeWindow(strings.ToLower(raw))
	switch w {
	case "":
		return WindowAll, true
	case WindowToday, WindowWeek, WindowMonth, WindowAll:
		return w, true
	}
	return "", false
}

// Derive returns the appointments falling inside the given time window,
// preserving the relative order of the input (stable filter, no sort).
//
// Windows are evaluated in now's location. The week runs Sunday 00:00:00.000
// through Saturday 23:59:59.999 inclusive. Appointments whose date does not
// parse are excluded from every date-bounded window and included by the all
// window: fail open by exclusion, one rule for all four windows.
func Derive(all []models.Appointment, window TimeWindow, now time.Time) []models.Appointment {
	if len(all) == 0 || window == WindowAll {
		return all
	}

	keep := windowPredicate(window, now)
	loc := now.Location()

	out := make([]models.Appointment, 0, len(all))
	for _, appt := range all {
		t, err := appt.DateIn(loc)
		if err != nil {
			continue
		}
		if keep(t) {
			out = append(out, appt)
		}
	}
	return out
}

func windowPredicate(window TimeWindow, now time.Time) func(time.Time) bool {
	switch window {
	case WindowToday:
		ny, nm, nd := now.Date()
		return func(t time.Time) bool {
			y, m, d := t.Date()
			return y == ny && m == nm && d == nd
		}
	case WindowWeek:
		// Sunday midnight up to (but not including) the following Sunday
		// midnight, which is the inclusive Saturday 23:59:59.999 window.
		ny, nm, nd := now.Date()
		midnight := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())
		weekStart := midnight.AddDate(0, 0, -int(now.Weekday()))
		weekEnd := weekStart.AddDate(0, 0, 7)
		return func(t time.Time) bool {
			return !t.Before(weekStart) && t.Before(weekEnd)
		}
	case WindowMonth:
		return func(t time.Time) bool {
			return t.Month() == now.Month() && t.Year() == now.Year()
		}
	}
	return func(time.Time) bool { return true }
}

// Upcoming returns the appointments scheduled now or later whose status is
// neither cancelled nor completed, sorted ascending by appointment date. It
// takes no filter parameters and is always computed fresh from the full set.
// Appointments with unparseable dates are excluded.
func Upcoming(all []models.Appointment, now time.Time) []models.Appointment {
	type dated struct {
		appt models.Appointment
		at   time.Time
	}
	loc := now.Location()

	keep := make([]dated, 0, len(all))
	for _, appt := range all {
		if appt.Status == models.StatusCancelled || appt.Status == models.StatusCompleted {
			continue
		}
		t, err := appt.DateIn(loc)
		if err != nil {
			continue
		}
		if t.Before(now) {
			continue
		}
		keep = append(keep, dated{appt: appt, at: t})
	}

	sort.SliceStable(keep, func(i, j int) bool {
		return keep[i].at.Before(keep[j].at)
	})

	out := make([]models.Appointment, len(keep))
	for i, d := range keep {
		out[i] = d.appt
	}
	return out
}

// ActivityFilter narrows the admin portal's clinic directory by activation
// state.
type ActivityFilter string

const (
	ClinicsAll      ActivityFilter = "all"
	ClinicsActive   ActivityFilter = "active"
	ClinicsInactive ActivityFilter = "inactive"
)

// ParseActivityFilter normalizes a raw activity value. Empty means all.
func ParseActivityFilter(raw string) (ActivityFilter, bool) {
	f := ActivityFilter(strings.ToLower(raw))
	switch f {
	case "":
		return ClinicsAll, true
	case ClinicsAll, ClinicsActive, ClinicsInactive:
		return f, true
	}
	return "", false
}

// FilterClinics applies the activity filter to a fetched clinic directory,
// preserving input order.
func FilterClinics(all []models.ClinicAccount, filter ActivityFilter) []models.ClinicAccount {
	if len(all) == 0 || filter == ClinicsAll {
		return all
	}
	wantActive := filter == ClinicsActive

	out := make([]models.ClinicAccount, 0, len(all))
	for _, clinic := range all {
		if clinic.IsActive == wantActive {
			out = append(out, clinic)
		}
	}
	return out
}
