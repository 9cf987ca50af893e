package email

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/seu-repo/crm-ia/internal/ports"
)

const inviteProductID = "-//crm-ia//assistant//EN"

// BuildInvite renders a single-event iCalendar document for the meeting.
// Meetings without a duration last one hour.
func BuildInvite(meeting ports.MeetingConfirmation, loc *time.Location, now time.Time) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", meeting.Date+" "+meeting.Time, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting slot %q %q: %w", meeting.Date, meeting.Time, err)
	}

	duration := time.Hour
	if meeting.DurationMinutes > 0 {
		duration = time.Duration(meeting.DurationMinutes) * time.Minute
	}

	uid := meeting.EventID
	if uid == "" {
		uid = fmt.Sprintf("%d", start.Unix())
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid+"@crm-ia")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(duration).UTC())
	event.Props.SetText(ical.PropSummary, meeting.Subject)
	if meeting.ClientName != "" {
		event.Props.SetText(ical.PropDescription, "Meeting with "+meeting.ClientName)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, inviteProductID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode invite: %w", err)
	}
	return buf.Bytes(), nil
}
