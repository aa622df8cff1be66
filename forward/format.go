package forward

import (
	"fmt"
	"net/url"
	"strings"
)

/* Format represents the body shape a destination expects
 * Discord receives a chat summary with an embed
 * Full receives the complete normalized envelope
 * Lead receives the flattened get-started form record
 */
type Format int

const (
	Discord Format = iota + 1
	Full
	Lead
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case Discord:
		return "discord"
	case Full:
		return "full"
	case Lead:
		return "lead"
	default:
		return "unknown"
	}
}

// NewFormat creates a Format from a string, an empty string yields zero (auto detect)
func NewFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discord":
		return Discord
	case "full":
		return Full
	case "lead":
		return Lead
	default:
		return 0
	}
}

// Validate checks if the format is valid
func (f Format) Validate() error {
	if f < Discord || f > Lead {
		return fmt.Errorf("invalid format: %d", f)
	}
	return nil
}

// DetectFormat picks Discord for discord webhook hosts and Full for everything else
func DetectFormat(rawURL string) Format {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Full
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range []string{"discord.com", "discordapp.com"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return Discord
		}
	}
	return Full
}

// Role tells which configured slot a destination came from
type Role int

const (
	Primary Role = iota + 1
	Secondary
)

// String returns the string representation of the role
func (r Role) String() string {
	switch r {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// NewRole creates a Role from a string
func NewRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "secondary":
		return Secondary
	default:
		return Primary
	}
}
