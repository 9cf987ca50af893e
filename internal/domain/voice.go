package domain

import (
	"encoding/json"
	"strconv"
	"regexp"
	"strings"
)

// DefaultLanguage is used when the model does not report the command language.
const DefaultLanguage = "French"

// DefaultAudioContentType is the content type of the synthesized confirmation.
const DefaultAudioContentType = "audio/mpeg"

// VoiceCommand is the input of one assistant run: either raw audio or an
// already transcribed text.
type VoiceCommand struct {
	UserID           string
	Audio            []byte
	AudioContentType string
	Transcription    string
}

// HasAudio reports whether the command carries audio bytes.
func (c VoiceCommand) HasAudio() bool {
	return len(c.Audio) > 0
}

// HasTranscription reports whether the command carries a non-blank transcription.
func (c VoiceCommand) HasTranscription() bool {
	return strings.TrimSpace(c.Transcription) != ""
}

// Validate checks the command before any external call is made.
func (c VoiceCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return NewWorkflowError(ErrorKindInput, "validate", ErrMissingUserID)
	}
	if !c.HasAudio() && !c.HasTranscription() {
		return NewWorkflowError(ErrorKindInput, "validate", ErrMissingInput)
	}
	return nil
}

// Intent is the structured scheduling request extracted from a transcript.
type Intent struct {
	Subject       string  `json:"subject"`
	ClientName    string  `json:"client_name,omitempty"`
	ClientCompany string  `json:"client_company,omitempty"`
	Duration      Minutes `json:"duration,omitempty"`
	Language      string  `json:"language,omitempty"`
}

// LanguageOrDefault returns the detected language, falling back to French.
func (i *Intent) LanguageOrDefault() string {
	if i == nil || strings.TrimSpace(i.Language) == "" {
		return DefaultLanguage
	}
	return strings.TrimSpace(i.Language)
}

// HasClient reports whether the intent names a client or a company.
func (i *Intent) HasClient() bool {
	return i != nil && (strings.TrimSpace(i.ClientName) != "" || strings.TrimSpace(i.ClientCompany) != "")
}

// SchedulingDecision is the model's choice of slot plus the sentence read back to the user.
type SchedulingDecision struct {
	NaturalResponse string  `json:"natural_response"`
	Subject         string  `json:"subject"`
	ClientName      string  `json:"client_name"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Duration        Minutes `json:"duration"`
}

// WorkflowResult is the tagged result of a full assistant run.
type WorkflowResult struct {
	OK               bool           `json:"ok"`
	Audio            []byte         `json:"-"`
	AudioContentType string         `json:"audio_content_type,omitempty"`
	Text             string         `json:"text,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	EventID          string         `json:"event_id,omitempty"`
	Error            string         `json:"error,omitempty"`
	Kind             ErrorKind      `json:"kind,omitempty"`
}

// FailedWorkflow builds a failure result from err.
func FailedWorkflow(err error) *WorkflowResult {
	return &WorkflowResult{OK: false, Error: err.Error(), Kind: KindOf(err)}
}

// LanguageProbeResult is the result of the language/transcription probe.
type LanguageProbeResult struct {
	OK            bool      `json:"ok"`
	Language      string    `json:"language,omitempty"`
	Transcription string    `json:"transcription,omitempty"`
	Error         string    `json:"error,omitempty"`
	Kind          ErrorKind `json:"kind,omitempty"`
}

// FailedProbe builds a failure result from err.
func FailedProbe(err error) *LanguageProbeResult {
	return &LanguageProbeResult{OK: false, Error: err.Error(), Kind: KindOf(err)}
}

// Minutes is a duration in minutes that the model may send either as a number
// or as free text ("30", "30 minutes", "1h").
type Minutes int

// Int returns the value as a nullable int, nil when zero.
func (m Minutes) Int() *int {
	if m <= 0 {
		return nil
	}
	v := int(m)
	return &v
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	if s[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*m = ParseMinutes(text)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = Minutes(int(f + 0.5))
	return nil
}

var (
	durationPart = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(heures?|hours?|hrs?|h|minutes?|mins?|min|mn)?`)
	oneHour      = regexp.MustCompile(`\b(une|un|one|an|a)\s+(heure|hour)`)
	halfHour     = regexp.MustCompile(`demi[- ]heure|half an hour|half hour`)
	quarterHour  = regexp.MustCompile(`quart d['’]heure|quarter of an hour|quarter hour`)
	andAHalf     = regexp.MustCompile(`et demie|and a half`)
)

// ParseMinutes reads a spoken duration such as "30 minutes", "1h30",
// "1 h 30", "2 heures" or "une heure et demie". A bare number is minutes,
// except right after an hour where it is the minutes of that hour.
func ParseMinutes(text string) Minutes {
	text = strings.ToLower(strings.TrimSpace(text))
	switch {
	case halfHour.MatchString(text):
		return 30
	case quarterHour.MatchString(text):
		return 15
	}
	text = oneHour.ReplaceAllString(text, "1 $2")

	var total float64
	afterHour := false
	for _, m := range durationPart.FindAllStringSubmatch(text, -1) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			return 0
		}
		switch unit := m[2]; {
		case strings.HasPrefix(unit, "h"):
			total += f * 60
			afterHour = true
			continue
		case unit == "" && !afterHour && total > 0:
			// a second bare number with no hour before it is not a duration
			continue
		}
		total += f
		afterHour = false
	}
	if afterHour && andAHalf.MatchString(text) {
		total += 30
	}
	return Minutes(int(total + 0.5))
}
