// Package calendarfeed exports the villa's occupied dates as an iCalendar feed for channel managers.
package calendarfeed

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

const productID = "-//villastay//availability//EN"

// event is one all-day VEVENT. End is exclusive.
type event struct {
	uid     string
	summary string
	start   time.Time
	end     time.Time
}

// occupancy turns active reservations and blocked periods into events. Guest details
// are never included.
func occupancy(reservations []*models.Reservation, blocks []*models.BlockedPeriod, now time.Time) []event {
	var out []event
	for _, r := range reservations {
		if !r.BlocksCalendar(now) {
			continue
		}
		summary := "Reserved"
		if r.Status == models.StatusPending || r.Status == models.StatusAwaitingApproval {
			summary = "Reserved (tentative)"
		}
		out = append(out, event{uid: uid("reservation", r.ID), summary: summary, start: r.CheckIn, end: r.CheckOut})
	}
	for _, b := range blocks {
		// blocked periods include their last day
		out = append(out, event{uid: uid("block", b.ID), summary: "Not available", start: b.StartDate, end: dates.AddDays(b.EndDate, 1)})
	}
	return out
}

func uid(kind string, id uuid.UUID) string {
	return kind + "-" + id.String() + "@villastay"
}

// encode renders events as an RFC 5545 VCALENDAR.
func encode(name string, events []event, now time.Time) []byte {
	cal := ics.NewCalendarFor("villastay")
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	for _, ev := range events {
		e := cal.AddEvent(ev.uid)
		e.SetDtStampTime(now)
		e.SetAllDayStartAt(ev.start)
		e.SetAllDayEndAt(ev.end)
		e.SetSummary(ev.summary)
	}
	return []byte(cal.Serialize())
}
