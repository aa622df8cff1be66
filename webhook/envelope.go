package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/webhook/payload"
)

const (
	discordEmbedTitle = "Typeform Submission Details"
	discordEmbedColor = 0x00ff00
	unknownValue      = "Unknown"
)

// Metadata describes how the event reached the relay
type Metadata struct {
	ReceivedAt string `json:"receivedAt"`
	IP         string `json:"ip"`
	UserAgent  string `json:"userAgent"`
}

// Form summarizes the submission
type Form struct {
	ID             string                     `json:"id"`
	Token          string                     `json:"token"`
	SubmittedAt    string                     `json:"submittedAt"`
	LandedAt       string                     `json:"landedAt,omitempty"`
	Calculated     json.RawMessage            `json:"calculated,omitempty"`
	Variables      json.RawMessage            `json:"variables"`
	TotalAnswers   int                        `json:"totalAnswers"`
	FormDefinition *payload.DefinitionSummary `json:"formDefinition"`
}

/* Envelope is the normalized event relayed to destinations
 * It implements forward.Payload and renders one body per destination format
 */
type Envelope struct {
	Source       string                     `json:"source"`
	Timestamp    string                     `json:"timestamp"`
	WebhookID    string                     `json:"webhookId"`
	EventID      string                     `json:"eventId"`
	Metadata     Metadata                   `json:"metadata"`
	Form         Form                       `json:"form"`
	Answers      []payload.NormalizedAnswer `json:"answers"`
	OriginalData json.RawMessage            `json:"originalData"`
}

// NewEnvelope builds the envelope for a submission received at receivedAt
func NewEnvelope(s payload.Submission, webhookID, eventID string, meta Metadata, receivedAt time.Time) Envelope {
	variables := s.Variables
	if len(variables) == 0 {
		variables = json.RawMessage("[]")
	}
	original := s.Original
	if len(original) == 0 {
		original = json.RawMessage("null")
	}
	answers := s.Answers
	if answers == nil {
		answers = []payload.NormalizedAnswer{}
	}

	return Envelope{
		Source:    s.Source,
		Timestamp: receivedAt.UTC().Format(time.RFC3339Nano),
		WebhookID: webhookID,
		EventID:   eventID,
		Metadata:  meta,
		Form: Form{
			ID:             s.FormID,
			Token:          s.Token,
			SubmittedAt:    s.SubmittedAt,
			LandedAt:       s.LandedAt,
			Calculated:     s.Calculated,
			Variables:      variables,
			TotalAnswers:   len(s.Answers),
			FormDefinition: s.Definition,
		},
		Answers:      answers,
		OriginalData: original,
	}
}

// Encode implements forward.Payload
func (e Envelope) Encode(d forward.Destination) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch d.Format {
	case forward.Discord:
		b, err = json.Marshal(e.Discord())
	case forward.Lead:
		b, err = json.Marshal(e.Lead())
	default:
		b, err = json.Marshal(e)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", d.Format, err)
	}
	return b, nil
}

// Discord renders the chat summary posted to Discord channel webhooks
func (e Envelope) Discord() forward.DiscordMessage {
	title := unknownValue
	if e.Form.FormDefinition != nil && e.Form.FormDefinition.Title != "" {
		title = e.Form.FormDefinition.Title
	}

	var sb strings.Builder
	sb.WriteString("🎯 **New Typeform Submission**\n\n")
	fmt.Fprintf(&sb, "**Form:** %s\n", title)
	fmt.Fprintf(&sb, "**Submission ID:** %s\n\n", orUnknown(e.Form.Token))
	sb.WriteString("**Answers:**")
	for i, a := range e.Answers {
		fmt.Fprintf(&sb, "\n**Question %d:** %s", i+1, a.Display())
	}

	return forward.DiscordMessage{
		Content: forward.TruncateContent(sb.String()),
		Embeds: []forward.DiscordEmbed{{
			Title: discordEmbedTitle,
			Color: discordEmbedColor,
			Fields: []forward.DiscordEmbedField{
				{Name: "Form ID", Value: orUnknown(e.Form.ID), Inline: true},
				{Name: "Total Answers", Value: strconv.Itoa(len(e.Answers)), Inline: true},
				{Name: "Submitted At", Value: humanTime(e.Form.SubmittedAt), Inline: true},
			},
			Timestamp: e.Form.SubmittedAt,
		}},
	}
}

// Lead flattens the answers into one record keyed by field ref
func (e Envelope) Lead() map[string]any {
	out := map[string]any{
		"timestamp": e.Timestamp,
		"source":    e.Source,
		"formId":    e.Form.ID,
		"token":     e.Form.Token,
	}
	for _, a := range e.Answers {
		key := a.FieldRef
		if key == "" {
			key = a.FieldID
		}
		if key == "" {
			continue
		}
		out[key] = a.Display()
	}
	return out
}

func humanTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return orUnknown(s)
	}
	return t.UTC().Format("Jan 2, 2006 15:04:05 UTC")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownValue
	}
	return s
}
