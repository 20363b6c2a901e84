package widget

// MessageType discriminates the envelopes exchanged with the host page.
type MessageType string

const (
	// TypeRequestToken asks the parent frame for the platform token.
	TypeRequestToken MessageType = "REQUEST_TOKEN"
	// TypeTokenResponse answers a REQUEST_TOKEN, echoing its ID when the host supports it.
	TypeTokenResponse MessageType = "TOKEN_RESPONSE"
	// TypeAuthUpdate announces a login (token set) or logout (token null).
	TypeAuthUpdate MessageType = "AUTH_UPDATE"
	// TypeState carries a provider snapshot to the widget page.
	TypeState MessageType = "STATE"
)

// Message is the cross-frame envelope. Token is nil when the sender had no
// token, which for AUTH_UPDATE means logout.
type Message struct {
	Type  MessageType `json:"type"`
	ID    string      `json:"id,omitempty"`
	Token *string     `json:"token,omitempty"`
	State *Snapshot   `json:"state,omitempty"`
}

func (m Message) token() string {
	if m.Token == nil {
		return ""
	}
	return *m.Token
}
