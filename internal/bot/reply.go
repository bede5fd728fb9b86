package bot

// Embed colors.
const (
	colorGreen  = 0x00FF00
	colorOrange = 0xFFA500
	colorBlue   = 0x0099FF
	colorGold   = 0xFFD700
	colorRed    = 0xFF0000
)

// Button styles understood by the gateway.
const (
	StylePrimary   = "primary"
	StyleSecondary = "secondary"
	StyleSuccess   = "success"
	StyleLink      = "link"
)

// Reply is what the gateway renders for one command or interaction. Messages are
// sent in order. When Direct is set the gateway delivers it privately to the user
// and, if that fails, shows Direct in place of Messages.
type Reply struct {
	Direct    *Message  `json:"direct,omitempty"`
	Messages  []Message `json:"messages"`
	Ephemeral bool      `json:"ephemeral,omitempty"`
}

// Message is a single chat message.
type Message struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []ActionRow `json:"components,omitempty"`
	Files      []File      `json:"files,omitempty"`
}

// Embed is a rich card.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Image       string  `json:"image,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Color       int     `json:"color,omitempty"`
}

// Field is a titled block inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// ActionRow groups up to five buttons.
type ActionRow struct {
	Buttons []Button `json:"buttons"`
}

// Button is either an interaction button (CustomID) or a link button (URL).
type Button struct {
	CustomID string `json:"custom_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji,omitempty"`
	Style    string `json:"style"`
}

// File is an attachment sent with a message.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func text(content string) *Reply {
	return &Reply{Messages: []Message{{Content: content}}}
}

func private(content string) *Reply {
	return &Reply{Messages: []Message{{Content: content}}, Ephemeral: true}
}

func embed(e Embed, rows ...ActionRow) *Reply {
	return &Reply{Messages: []Message{{Embeds: []Embed{e}, Components: rows}}}
}
