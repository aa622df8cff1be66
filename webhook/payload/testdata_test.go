package payload

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const fullPayload = `{
  "event_id": "01HZX5KQ",
  "event_type": "form_response",
  "form_response": {
    "form_id": "lT4Z3j",
    "token": "a3a12ec67a1365927098a606107fac15",
    "submitted_at": "2024-05-01T12:00:00Z",
    "landed_at": "2024-05-01T11:58:02Z",
    "calculated": {"score": 9},
    "variables": [{"key": "score", "type": "number", "number": 4}],
    "definition": {
      "id": "lT4Z3j",
      "title": "Get started",
      "fields": [
        {"id": "f1", "ref": "name", "type": "short_text", "title": "Your name"},
        {"id": "f2", "ref": "mail", "type": "email", "title": "Email"}
      ]
    },
    "answers": [
      {"type": "text", "text": "Ada", "field": {"id": "f1", "type": "short_text", "ref": "name", "required": true}},
      {"type": "email", "email": "ada@example.com", "field": {"id": "f2", "type": "email", "ref": "mail"}}
    ]
  }
}`

// answerPayload wraps a single answer JSON object into a full webhook body
func answerPayload(answer string) []byte {
	return []byte(fmt.Sprintf(`{"event_id":"e1","form_response":{"form_id":"F","token":"T","submitted_at":"2024-05-01T12:00:00Z","answers":[%s]}}`, answer))
}

// normalizeOne parses a single-answer body and returns its normalized answer
func normalizeOne(t *testing.T, answer string) NormalizedAnswer {
	t.Helper()

	p, err := Parse(answerPayload(answer))
	require.NoError(t, err)

	s, err := Transform(p)
	require.NoError(t, err)
	require.Len(t, s.Answers, 1)

	return s.Answers[0]
}
