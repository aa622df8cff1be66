package forward

// DiscordMessage is the execute-webhook body accepted by Discord channel webhooks
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed is a rich embed attached to a message
type DiscordEmbed struct {
	Title     string              `json:"title,omitempty"`
	Color     int                 `json:"color,omitempty"`
	Fields    []DiscordEmbedField `json:"fields,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField is one name/value row of an embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// discordMaxContent is the message content limit enforced by Discord
const discordMaxContent = 2000

// TruncateContent keeps content within Discord's length limit
func TruncateContent(s string) string {
	r := []rune(s)
	if len(r) <= discordMaxContent {
		return s
	}
	return string(r[:discordMaxContent-1]) + "…"
}
