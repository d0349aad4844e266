// Package render builds the conversational webhook response envelope.
//
// Every answer is rendered side by side as plain text, a Slack message with
// interactive buttons and a Messenger message with quick replies. The
// platform picks the variant for its channel. Nothing is truncated; channel
// limits are left to the platform.
package render

// Source identifies this service in every envelope.
const Source = "oasbot"

// Button is one selectable follow-up. Value is the utterance sent back to the
// conversational platform when the button is chosen.
type Button struct {
	Name  string
	Label string
	Value string
}

// Menu describes the buttons attached to an answer.
type Menu struct {
	// Prompt introduces the buttons
	Prompt string
	// CallbackID tags the Slack attachment
	CallbackID string
	// Fallback is shown by Slack clients that cannot display buttons
	Fallback string
	Buttons  []Button
}

// Payload is the webhook response envelope.
type Payload struct {
	Speech      string `json:"speech"`
	DisplayText string `json:"displayText"`
	Data        *Data  `json:"data,omitempty"`
	Source      string `json:"source"`
}

// Data holds the channel-specific renderings.
type Data struct {
	Slack    *SlackMessage     `json:"slack,omitempty"`
	Facebook *MessengerMessage `json:"facebook,omitempty"`
}

// SlackMessage is a Slack message with interactive attachments.
type SlackMessage struct {
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment groups a prompt with its buttons.
type SlackAttachment struct {
	Text       string        `json:"text"`
	Fallback   string        `json:"fallback"`
	CallbackID string        `json:"callback_id"`
	Actions    []SlackAction `json:"actions"`
}

// SlackAction is a Slack button.
type SlackAction struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// MessengerMessage is a Facebook Messenger message with quick replies.
type MessengerMessage struct {
	Text         string       `json:"text"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
}

// QuickReply is a Messenger quick reply button.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// Text renders a plain answer.
func Text(text string) *Payload {
	return &Payload{Speech: text, DisplayText: text, Source: Source}
}

// WithMenu renders text followed by the menu's buttons. Without buttons the
// result equals Text(text).
func WithMenu(text string, m Menu) *Payload {
	p := Text(text)
	if len(m.Buttons) == 0 {
		return p
	}
	p.Data = &Data{
		Slack:    slackMessage(text, m),
		Facebook: messengerMessage(text, m),
	}
	return p
}

func slackMessage(text string, m Menu) *SlackMessage {
	actions := make([]SlackAction, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		actions = append(actions, SlackAction{Name: b.Name, Text: b.Label, Value: b.Value, Type: "button"})
	}
	return &SlackMessage{
		Text: text,
		Attachments: []SlackAttachment{{
			Text:       m.Prompt,
			Fallback:   m.Fallback,
			CallbackID: m.CallbackID,
			Actions:    actions,
		}},
	}
}

func messengerMessage(text string, m Menu) *MessengerMessage {
	replies := make([]QuickReply, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		replies = append(replies, QuickReply{ContentType: "text", Title: b.Label, Payload: b.Value})
	}
	msg := text
	if m.Prompt != "" {
		msg += "\n" + m.Prompt
	}
	return &MessengerMessage{Text: msg, QuickReplies: replies}
}
