package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// CalendarEvent is one agenda entry of a user. ClientName is display text,
// not a reference to the clients table.
type CalendarEvent struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"userId" gorm:"column:user_id;index;not null"`
	ClientName string    `json:"client_name" gorm:"column:client_name"`
	Subject    string    `json:"subject" gorm:"column:subject"`
	Date       CivilDate `json:"date" gorm:"column:date;type:date;not null"`
	Time       ClockTime `json:"time" gorm:"column:time;type:time;not null"`
	Duration   *int      `json:"duration" gorm:"column:duration"`
}

func (CalendarEvent) TableName() string {
	return "calendar"
}

// Start resolves the event start in loc.
func (e *CalendarEvent) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, string(e.Date)+" "+string(e.Time), loc)
}

// CivilDate is a YYYY-MM-DD calendar date stored in a DATE column.
type CivilDate string

func (d CivilDate) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *CivilDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = CivilDate(v.Format(DateLayout))
	case string:
		*d = CivilDate(trimTo(v, len(DateLayout)))
	case []byte:
		*d = CivilDate(trimTo(string(v), len(DateLayout)))
	default:
		return fmt.Errorf("cannot scan %T into CivilDate", src)
	}
	return nil
}

// ClockTime is an HH:MM local time-of-day stored in a TIME column.
type ClockTime string

func (t ClockTime) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case time.Time:
		*t = ClockTime(v.Format(ClockLayout))
	case string:
		*t = ClockTime(trimTo(v, len(ClockLayout)))
	case []byte:
		*t = ClockTime(trimTo(string(v), len(ClockLayout)))
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
	return nil
}

func trimTo(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
