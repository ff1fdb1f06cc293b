package models

import "fmt"

// AnswerType is the closed set of answer kinds a question can declare.
type AnswerType string

const (
	AnswerBoolean      AnswerType = "boolean"
	AnswerDate         AnswerType = "date"
	AnswerTime         AnswerType = "time"
	AnswerFreeText     AnswerType = "free_text"
	AnswerOptionalText AnswerType = "optional_text"
	AnswerNameList     AnswerType = "name_list"
	AnswerPhoto        AnswerType = "photo"
)

// Value is a normalized answer as produced by the validator. Exactly
// one payload field is meaningful, selected by Kind. The struct is
// JSON-serializable so it can travel inside the session payload blob.
type Value struct {
	Kind  AnswerType `json:"kind"`
	Bool  bool       `json:"bool,omitempty"`
	Text  string     `json:"text,omitempty"`
	Names []string   `json:"names,omitempty"`
	Date  string     `json:"date,omitempty"` // YYYY-MM-DD
	Time  string     `json:"time,omitempty"` // HH:MM
}

// BoolValue wraps an affirmative/negative answer.
func BoolValue(v bool) Value { return Value{Kind: AnswerBoolean, Bool: v} }

// TextValue wraps a normalized free-text answer. Optional questions
// answered with an explicit "none" token carry an empty Text.
func TextValue(s string) Value { return Value{Kind: AnswerFreeText, Text: s} }

// NamesValue wraps an ordered list of normalized personnel names.
func NamesValue(names []string) Value { return Value{Kind: AnswerNameList, Names: names} }

// DateValue wraps a calendar date in YYYY-MM-DD form.
func DateValue(s string) Value { return Value{Kind: AnswerDate, Date: s} }

// TimeValue wraps a time of day in HH:MM form.
func TimeValue(s string) Value { return Value{Kind: AnswerTime, Time: s} }

// Display renders the value the way it is shown in summaries.
func (v Value) Display() string {
	switch v.Kind {
	case AnswerBoolean:
		if v.Bool {
			return "Sí"
		}
		return "No"
	case AnswerDate:
		return v.Date
	case AnswerTime:
		return v.Time
	case AnswerNameList:
		out := ""
		for i, n := range v.Names {
			if i > 0 {
				out += ", "
			}
			out += n
		}
		return out
	default:
		return v.Text
	}
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.Display())
}
