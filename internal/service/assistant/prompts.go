package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seu-repo/crm-ia/internal/domain"
)

const (
	intentPromptTemplate = `Extract the calendar intent from this command as a JSON object with exactly these keys: %s. ` +
		`"language" should be the detected language of the command (e.g., "English", "French"). ` +
		`Use ISO-like/simple values and keep values concise. Command: "%s"`

	intentKeys = "subject, client_name, client_company, duration, language"
	probeKeys  = "subject, client_name, duration, language"
)

// IntentPrompt asks for the full scheduling intent of transcript.
func IntentPrompt(transcript string) string {
	return fmt.Sprintf(intentPromptTemplate, intentKeys, escapeQuotes(transcript))
}

// ProbePrompt is the reduced intent prompt used to detect the command language.
func ProbePrompt(transcript string) string {
	return fmt.Sprintf(intentPromptTemplate, probeKeys, escapeQuotes(transcript))
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// SchedulingPrompt asks the model to pick the next free slot. now is the
// reference time in the user's timezone and is spelled out because models
// get the day of the week wrong.
func SchedulingPrompt(intent map[string]any, events []domain.CalendarEvent, language string, now time.Time) (string, error) {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}
	if events == nil {
		events = []domain.CalendarEvent{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are given an intent JSON and the user's upcoming calendar events (as JSON array). ")
	b.WriteString("Choose the next available slot that fits the requested duration and return a JSON object with keys: ")
	b.WriteString("natural_response, subject, client_name, date, time, duration. ")
	b.WriteString("natural_response should be a short sentence confirming when you'll add the event and any relevant details, ")
	b.WriteString("and also mention that an automatic email has been sent to the client to inform him of the meeting details. ")
	fmt.Fprintf(&b, "IMPORTANT: The natural_response MUST be written in %s and use common %s date/time expressions. ", language, language)
	b.WriteString("Use the format YYYY-MM-DD for date, HH:MM (24h) for time and a number of minutes for duration. ")
	b.WriteString("Return ONLY the JSON object (no extra commentary). ")
	fmt.Fprintf(&b, "Intent: %s; Events: %s. ", intentJSON, eventsJSON)
	fmt.Fprintf(&b, "Double-check that the day of the week matches the date: TODAY IS %s (%s), THE CURRENT TIME IS %s, ",
		strings.ToUpper(now.Format("Monday 2 January 2006")), now.Format(domain.DateLayout), now.Format(domain.ClockLayout))
	b.WriteString("SO THE MEETING MUST BE SCHEDULED FROM NOW ON, NEVER IN THE PAST.")

	return b.String(), nil
}
