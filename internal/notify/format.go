package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
)

// StatusDisplay is the emoji and label shown for a reservation status.
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay returns the emoji and label for a reservation status.
func GetStatusDisplay(status model.ReservationStatus) StatusDisplay {
	displays := map[model.ReservationStatus]StatusDisplay{
		model.ReservationStatusPending:   {"⏳", "Awaiting confirmation"},
		model.ReservationStatusConfirmed: {"✅", "Confirmed"},
		model.ReservationStatusRejected:  {"🚫", "Rejected"},
		model.ReservationStatusCancelled: {"❌", "Cancelled"},
		model.ReservationStatusCompleted: {"✔️", "Completed"},
		model.ReservationStatusNoShow:    {"👻", "No-show"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// FormatPrice formats an amount in cents.
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// FormatDuration formats a length in minutes.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

// FormatDate formats a calendar date with its weekday.
func FormatDate(d time.Time) string {
	return d.Format("Mon 02.01.2006")
}

// PluralizeReservations returns "reservation" or "reservations" for count.
func PluralizeReservations(count int) string {
	if count == 1 {
		return "reservation"
	}
	return "reservations"
}

var eventTitles = map[model.EventType]string{
	model.EventReservationCreated:     "🆕 New reservation",
	model.EventReservationConfirmed:   "✅ Reservation confirmed",
	model.EventReservationRejected:    "🚫 Reservation rejected",
	model.EventReservationCancelled:   "❌ Reservation cancelled",
	model.EventReservationCompleted:   "✔️ Reservation completed",
	model.EventReservationNoShow:      "👻 Guest did not show up",
	model.EventReservationRescheduled: "🔁 Reservation rescheduled",
}

// FormatEvent renders a staff alert for a reservation event.
func FormatEvent(restaurant *model.Restaurant, e model.ReservationEvent) string {
	title, ok := eventTitles[e.Type]
	if !ok {
		title = "ℹ️ Reservation updated"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", title)
	fmt.Fprintf(&b, "🏠 %s\n", restaurant.Name)
	if date, err := schedule.ParseDate(e.Date); err == nil {
		fmt.Fprintf(&b, "📅 %s, %s (%s)\n", FormatDate(date), e.Time, FormatDuration(e.DurationMinutes))
	} else {
		fmt.Fprintf(&b, "📅 %s %s (%s)\n", e.Date, e.Time, FormatDuration(e.DurationMinutes))
	}
	fmt.Fprintf(&b, "👥 Party of %d\n", e.PartySize)
	if e.CustomerName != "" {
		fmt.Fprintf(&b, "👤 %s\n", e.CustomerName)
	}
	display := GetStatusDisplay(e.Status)
	fmt.Fprintf(&b, "📊 Status: %s %s", display.Emoji, display.Text)
	if e.Reason != "" {
		fmt.Fprintf(&b, "\n💬 %s", e.Reason)
	}
	return b.String()
}

// FormatReservationLine renders one reservation as a single digest line.
func FormatReservationLine(r *model.Reservation) string {
	line := fmt.Sprintf("• %s %s, %d guests, %s",
		r.Date.Format("02.01"), r.Interval(), r.PartySize, r.Customer.Name)
	if r.TotalAmountCents > 0 {
		line += ", pre-order " + FormatPrice(r.TotalAmountCents)
	}
	return line
}

// FormatDigest renders the list of reservations still awaiting confirmation.
func FormatDigest(restaurant *model.Restaurant, pending []*model.Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ %s: %d %s awaiting confirmation\n",
		restaurant.Name, len(pending), PluralizeReservations(len(pending)))
	for _, r := range pending {
		b.WriteString("\n")
		b.WriteString(FormatReservationLine(r))
	}
	return b.String()
}
