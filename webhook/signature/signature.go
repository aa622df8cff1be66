package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
)

// Prefix is prepended by senders that tag the digest algorithm
const Prefix = "sha256="

// HeaderNames lists the headers that may carry a signature, in priority order
var HeaderNames = []string{
	"Typeform-Signature",
	"X-Typeform-Signature",
	"X-Signature",
	"X-Hub-Signature-256",
}

/* Encoding is the detected representation of a received signature
 * Senders differ: Typeform uses base64, GitHub-style senders use hex
 */
type Encoding int

const (
	Unknown Encoding = iota
	Hex
	Base64
)

// String returns the string representation of the encoding
func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return "unknown"
	}
}

// FromHeader returns the first non-empty signature header and its name
func FromHeader(h http.Header) (name, value string) {
	for _, n := range HeaderNames {
		if v := strings.TrimSpace(h.Get(n)); v != "" {
			return n, v
		}
	}
	return "", ""
}

// StripPrefix removes a case-insensitive "sha256=" prefix and surrounding whitespace
func StripPrefix(sig string) string {
	sig = strings.TrimSpace(sig)
	if len(sig) >= len(Prefix) && strings.EqualFold(sig[:len(Prefix)], Prefix) {
		sig = sig[len(Prefix):]
	}
	return strings.TrimSpace(sig)
}

/* DetectEncoding guesses how a prefix-free signature is encoded
 * A value made only of hex digits with even length is hex,
 * otherwise it is base64 when any standard or URL alphabet decodes it
 */
func DetectEncoding(sig string) Encoding {
	if sig == "" {
		return Unknown
	}
	if isHex(sig) {
		return Hex
	}
	if _, ok := decodeBase64(sig); ok {
		return Base64
	}
	return Unknown
}

// Normalize decodes a signature to its lowercase hex form
func Normalize(sig string) (string, bool) {
	sig = StripPrefix(sig)
	switch DetectEncoding(sig) {
	case Hex:
		return strings.ToLower(sig), true
	case Base64:
		raw, _ := decodeBase64(sig)
		return hex.EncodeToString(raw), true
	default:
		return "", false
	}
}

// Digest returns the HMAC-SHA256 of body keyed by secret
func Digest(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign returns a Typeform-style header value: sha256=<base64 digest>
func Sign(body []byte, secret string) string {
	return Prefix + base64.StdEncoding.EncodeToString(Digest(body, secret))
}

// SignHex returns the digest as prefixed hex, as GitHub-style senders do
func SignHex(body []byte, secret string) string {
	return Prefix + hex.EncodeToString(Digest(body, secret))
}

/* Verify authenticates rawBody against a received signature header value
 * Both sides are normalized to hex and compared in constant time.
 * hmac.Equal reports false for unequal lengths without panicking,
 * so no non-constant-time fallback exists; only the length can leak.
 * Any missing or malformed input yields false.
 */
func Verify(rawBody []byte, header, secret string) bool {
	if secret == "" || strings.TrimSpace(header) == "" {
		return false
	}

	received, ok := Normalize(header)
	if !ok {
		return false
	}
	expected := hex.EncodeToString(Digest(rawBody, secret))

	return hmac.Equal([]byte(expected), []byte(received))
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil && len(raw) > 0 {
			return raw, true
		}
	}
	return nil, false
}
