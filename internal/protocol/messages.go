package protocol

import "time"

// Event types delivered to the caller-facing channel as JSON text frames.
// Binary frames on the same channel carry PCM16 mono 16 kHz audio.
const (
	EventSessionStarted = "session_started"
	EventTranscript     = "transcript"
	EventIntent         = "intent"
	EventAgentText      = "agent_text"
	EventAgentComplete  = "agent_complete"
	EventError          = "error"
)

// Lead is the structured caller data snapshot attached to caller-facing
// events. Empty fields are omitted on the wire.
type Lead struct {
	Name    string `json:"name,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Request string `json:"request,omitempty"`
}

// SessionStarted is sent exactly once, immediately after the connection opens.
type SessionStarted struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Transcript reports a recognized caller utterance. Lead is attached only
// when extraction changed a field.
type Transcript struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
	Lead      *Lead  `json:"lead,omitempty"`
}

// Intent reports the routing decision for one turn.
type Intent struct {
	Type   string `json:"type"`
	Intent string `json:"intent"`
	Agent  string `json:"agent"`
}

// AgentText carries the full-so-far agent reply, not a delta.
type AgentText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AgentComplete marks the end of a turn and always carries the lead snapshot.
type AgentComplete struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Lead Lead   `json:"lead"`
}

// Error is the generic caller-facing turn failure event.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TapEvent mirrors a call event onto the operator bus.
type TapEvent struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Role      string    `json:"role,omitempty"`
	Text      string    `json:"text,omitempty"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus subjects for the operator event tap.
const (
	SubjectCallStarted    = "call.session.started"
	SubjectCallTranscript = "call.transcript"
	SubjectCallReply      = "call.reply"
	SubjectCallEnded      = "call.session.ended"
)
