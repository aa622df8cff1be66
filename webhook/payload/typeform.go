package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidJSON         = errors.New("invalid JSON payload")
	ErrMissingFormResponse = errors.New("missing form_response")
	ErrMissingAnswers      = errors.New("missing answers")
)

/* WebhookPayload is the body Typeform posts for a form_response event
 * Raw keeps the exact bytes received so the original can be relayed untouched
 */
type WebhookPayload struct {
	EventID      string        `json:"event_id,omitempty"`
	EventType    string        `json:"event_type,omitempty"`
	FormResponse *FormResponse `json:"form_response"`

	Raw json.RawMessage `json:"-"`
}

// FormResponse is a single submission of a form
type FormResponse struct {
	FormID      string          `json:"form_id"`
	Token       string          `json:"token"`
	SubmittedAt string          `json:"submitted_at"`
	LandedAt    string          `json:"landed_at,omitempty"`
	Calculated  json.RawMessage `json:"calculated,omitempty"`
	Variables   json.RawMessage `json:"variables,omitempty"`
	Hidden      json.RawMessage `json:"hidden,omitempty"`
	Definition  *Definition     `json:"definition,omitempty"`
	Ending      *Ending         `json:"ending,omitempty"`
	Answers     []Answer        `json:"answers"`
}

// UnmarshalJSON leaves Answers nil unless the answers value is a JSON array
func (f *FormResponse) UnmarshalJSON(data []byte) error {
	type alias FormResponse
	aux := struct {
		*alias
		Answers json.RawMessage `json:"answers"`
	}{alias: (*alias)(f)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.Answers = nil
	if trimmed := bytes.TrimSpace(aux.Answers); len(trimmed) > 0 && trimmed[0] == '[' {
		answers := []Answer{}
		if err := json.Unmarshal(trimmed, &answers); err != nil {
			return fmt.Errorf("decoding answers: %w", err)
		}
		f.Answers = answers
	}
	return nil
}

// Definition describes the form the submission belongs to
type Definition struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Fields []DefinitionField `json:"fields,omitempty"`
}

type DefinitionField struct {
	ID    string `json:"id"`
	Ref   string `json:"ref"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type Ending struct {
	ID  string `json:"id"`
	Ref string `json:"ref"`
}

// Field identifies the question an answer belongs to
type Field struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Ref      string `json:"ref"`
	Required bool   `json:"required,omitempty"`
	Title    string `json:"title,omitempty"`
}

type Choice struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Ref   string `json:"ref,omitempty"`
	Other string `json:"other,omitempty"`
}

type Choices struct {
	IDs    []string `json:"ids,omitempty"`
	Labels []string `json:"labels"`
	Refs   []string `json:"refs,omitempty"`
	Other  string   `json:"other,omitempty"`
}

type Payment struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

/* Answer is one answered field
 * Only the member matching the field type is normally set;
 * Extra holds every member as received for the fallback lookup
 */
type Answer struct {
	Type        string   `json:"type"`
	Field       Field    `json:"field"`
	Text        *string  `json:"text,omitempty"`
	Email       *string  `json:"email,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	URL         *string  `json:"url,omitempty"`
	FileURL     *string  `json:"file_url,omitempty"`
	Choice      *Choice  `json:"choice,omitempty"`
	Choices     *Choices `json:"choices,omitempty"`
	Number      *float64 `json:"number,omitempty"`
	Boolean     *bool    `json:"boolean,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Payment     *Payment `json:"payment,omitempty"`
	Answers     []Answer `json:"answers,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed members and keeps the raw ones in Extra
func (a *Answer) UnmarshalJSON(data []byte) error {
	type alias Answer
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}

	*a = Answer(aux)
	a.Extra = extra
	return nil
}

// Parse decodes a raw webhook body, keeping a copy of the bytes
func Parse(raw []byte) (WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return WebhookPayload{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	p.Raw = append(json.RawMessage(nil), raw...)
	return p, nil
}

// AnswerCount returns the number of answers, zero when absent
func (p WebhookPayload) AnswerCount() int {
	if p.FormResponse == nil {
		return 0
	}
	return len(p.FormResponse.Answers)
}
