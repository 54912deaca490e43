package fraud

// MessageKey selects the human-facing response message for a decision.
// The transport layer owns the actual (localized) strings.
type MessageKey string

const (
	MessageErrorExtractingParams MessageKey = "ERROR_EXTRACTING_PARAMS"
	MessageBlockedNumber         MessageKey = "BLOCKED_NUMBER"
	MessageAllowedNumber         MessageKey = "ALLOWED_NUMBER"
)

// Decision is the engine's answer for one incoming event.
type Decision struct {
	Blocked bool       `json:"blocked"`
	Message MessageKey `json:"message"`
	// Reason carries the block reason when Blocked is true; empty otherwise.
	Reason string `json:"reason,omitempty"`
}

// BlockDecision is the blocking policy's verdict, before any side effect.
// Writing the BlockEntry is the orchestrator's job so the policy stays
// pure and testable.
type BlockDecision struct {
	Blocked bool
	Reason  string
	// Window names the window that triggered the rule, when Blocked.
	Window Window
}
