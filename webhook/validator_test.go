package webhook

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeaders(t *testing.T) {
	headers := func(contentType, userAgent string) http.Header {
		h := http.Header{}
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		if userAgent != "" {
			h.Set("User-Agent", userAgent)
		}
		return h
	}

	tests := []struct {
		name   string
		h      http.Header
		allow  []string
		reason string
	}{
		{"typeform", headers("application/json", "Typeform Webhooks"), nil, ""},
		{"charset suffix", headers("application/json; charset=utf-8", "My-Bot/2.0"), nil, ""},
		{"upper case", headers("APPLICATION/JSON", "SOME-API-CLIENT"), nil, ""},
		{"missing content type", headers("", "Typeform Webhooks"), nil, ReasonInvalidContentType},
		{"form content type", headers("application/x-www-form-urlencoded", "Typeform Webhooks"), nil, ReasonInvalidContentType},
		{"missing user agent", headers("application/json", ""), nil, ReasonMissingUserAgent},
		{"browser", headers("application/json", "Mozilla/5.0"), nil, ReasonInvalidUserAgent},
		{"custom allow list", headers("application/json", "Zapier"), []string{"zapier"}, ""},
		{"custom allow list rejects default", headers("application/json", "Typeform"), []string{"zapier"}, ReasonInvalidUserAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateHeaders(tt.h, tt.allow)
			assert.Equal(t, tt.reason == "", res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := newError(Upstream, "Failed to forward webhook data", "all failed", cause)

	assert.Equal(t, "upstream: Failed to forward webhook data (all failed): boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Upstream, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
	assert.Equal(t, "unknown", Kind(0).String())
}
