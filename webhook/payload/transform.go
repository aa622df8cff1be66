package payload

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SourceTypeform tags submissions received from Typeform
const SourceTypeform = "typeform"

// fallbackKeys are tried in order when a field type has no rule
var fallbackKeys = []string{"text", "choice", "choices", "number", "boolean", "date"}

/* Submission is the normalized form of a Typeform response
 * Answers keeps the order and length of the received answers
 */
type Submission struct {
	Source      string
	EventID     string
	EventType   string
	FormID      string
	Token       string
	SubmittedAt string
	LandedAt    string
	Calculated  json.RawMessage
	Variables   json.RawMessage
	Definition  *DefinitionSummary
	Answers     []NormalizedAnswer
	Original    json.RawMessage
}

type DefinitionSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TotalFields int    `json:"totalFields"`
}

type NormalizedAnswer struct {
	FieldID          string  `json:"fieldId"`
	FieldType        string  `json:"fieldType"`
	FieldRef         string  `json:"fieldRef"`
	Answer           any     `json:"answer"`
	Label            *string `json:"answerLabel"`
	HasAnswer        bool    `json:"hasAnswer"`
	AnswerLength     *int    `json:"answerLength"`
	IsMultipleChoice bool    `json:"isMultipleChoice"`
	IsRequired       bool    `json:"isRequired"`

	Rule Rule `json:"-"`
}

// Transform validates the payload structure and normalizes every answer
func Transform(p WebhookPayload) (Submission, error) {
	fr := p.FormResponse
	if fr == nil {
		return Submission{}, ErrMissingFormResponse
	}
	if fr.Answers == nil {
		return Submission{}, ErrMissingAnswers
	}

	s := Submission{
		Source:      SourceTypeform,
		EventID:     p.EventID,
		EventType:   p.EventType,
		FormID:      fr.FormID,
		Token:       fr.Token,
		SubmittedAt: fr.SubmittedAt,
		LandedAt:    fr.LandedAt,
		Calculated:  fr.Calculated,
		Variables:   fr.Variables,
		Answers:     normalizeAll(fr.Answers),
		Original:    p.Raw,
	}

	if fr.Definition != nil {
		s.Definition = &DefinitionSummary{
			ID:          fr.Definition.ID,
			Title:       fr.Definition.Title,
			TotalFields: len(fr.Definition.Fields),
		}
	}

	return s, nil
}

func normalizeAll(answers []Answer) []NormalizedAnswer {
	out := make([]NormalizedAnswer, len(answers))
	for i, a := range answers {
		out[i] = Normalize(a)
	}
	return out
}

// Normalize extracts the value and derived metadata of a single answer
func Normalize(a Answer) NormalizedAnswer {
	rule := RuleFor(a.Field.Type)
	value := extract(rule, a)

	n := NormalizedAnswer{
		FieldID:          a.Field.ID,
		FieldType:        a.Field.Type,
		FieldRef:         a.Field.Ref,
		Answer:           value,
		Label:            label(a),
		HasAnswer:        value != nil,
		IsMultipleChoice: IsMultipleChoice(a.Field.Type),
		IsRequired:       a.Field.Required,
		Rule:             rule,
	}
	if s, ok := value.(string); ok {
		length := utf8.RuneCountInString(s)
		n.AnswerLength = &length
	}
	return n
}

func extract(rule Rule, a Answer) any {
	switch rule {
	case RuleText:
		return deref(a.Text)
	case RuleEmail:
		return deref(a.Email)
	case RuleChoice:
		if a.Choice == nil {
			return nil
		}
		return *a.Choice
	case RuleChoices:
		if a.Choices == nil {
			return nil
		}
		return *a.Choices
	case RuleNumber:
		if a.Number == nil {
			return nil
		}
		return *a.Number
	case RuleBoolean:
		if a.Boolean == nil {
			return nil
		}
		return *a.Boolean
	case RuleDate:
		return deref(a.Date)
	case RulePhone:
		return deref(a.PhoneNumber)
	case RuleURL:
		return deref(a.URL)
	case RuleFile:
		return deref(a.FileURL)
	case RulePayment:
		if a.Payment == nil {
			return nil
		}
		return *a.Payment
	case RuleGroup:
		if a.Answers == nil {
			return nil
		}
		return normalizeAll(a.Answers)
	case RuleStatement:
		return nil
	default:
		return fallbackValue(a)
	}
}

// fallbackValue returns the first present, non-null member among the field type key and fallbackKeys
func fallbackValue(a Answer) any {
	keys := fallbackKeys
	if t := a.Field.Type; t != "" && t != "type" && t != "field" {
		keys = append([]string{a.Field.Type}, fallbackKeys...)
	}

	for _, key := range keys {
		raw, ok := a.Extra[key]
		if !ok || isNull(raw) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		return v
	}
	return nil
}

func label(a Answer) *string {
	if a.Choice != nil {
		if a.Choice.Label != "" {
			return &a.Choice.Label
		}
		if a.Choice.Other != "" {
			return &a.Choice.Other
		}
	}
	if a.Choices != nil {
		parts := append([]string(nil), a.Choices.Labels...)
		if a.Choices.Other != "" {
			parts = append(parts, a.Choices.Other)
		}
		if len(parts) > 0 {
			joined := strings.Join(parts, ", ")
			return &joined
		}
	}
	return nil
}

/* Display renders the answer for chat summaries
 * The label wins, then the value, then "No answer"
 */
func (n NormalizedAnswer) Display() string {
	if n.Label != nil && *n.Label != "" {
		return *n.Label
	}

	switch v := n.Answer.(type) {
	case nil:
		return "No answer"
	case string:
		if v == "" {
			return "No answer"
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case Payment:
		return strings.TrimSpace(v.Amount + " " + v.Currency)
	case []NormalizedAnswer:
		return strconv.Itoa(len(v)) + " answers"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "No answer"
		}
		return string(b)
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
