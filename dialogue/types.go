// Package dialogue defines the dialogue state machine: the closed state and
// action enumerations, the data-defined transition graph, and the
// deterministic fallback rules used whenever the model-based path fails.
package dialogue

import "fmt"

// State is one phase of a conversation.
type State string

const (
	StateGreeting             State = "greeting"
	StateInformationGathering State = "information_gathering"
	StateProblemSolving       State = "problem_solving"
	StateTransaction          State = "transaction"
	StateSupport              State = "support"
	StatePolicyInquiry        State = "policy_inquiry"
	StateEscalation           State = "escalation"
	StateConclusion           State = "conclusion"
	StateIdle                 State = "idle"
)

// States lists every dialogue state.
var States = []State{
	StateGreeting,
	StateInformationGathering,
	StateProblemSolving,
	StateTransaction,
	StateSupport,
	StatePolicyInquiry,
	StateEscalation,
	StateConclusion,
	StateIdle,
}

// Valid reports whether s is a member of the closed enumeration.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// ParseState converts a wire value into a State.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown dialogue state %q", ErrMalformedResponse, raw)
	}
	return s, nil
}

// Action is the conversational action taken on a turn.
type Action string

const (
	ActionProvideInformation Action = "provide_information"
	ActionAskQuestion        Action = "ask_question"
	ActionClarify            Action = "clarify"
	ActionAcknowledge        Action = "acknowledge"
	ActionEscalate           Action = "escalate"
	ActionTransfer           Action = "transfer"
	ActionEndConversation    Action = "end_conversation"
	ActionRequestMoreInfo    Action = "request_more_info"
	ActionOfferHelp          Action = "offer_help"
)

// Actions lists every dialogue action.
var Actions = []Action{
	ActionProvideInformation,
	ActionAskQuestion,
	ActionClarify,
	ActionAcknowledge,
	ActionEscalate,
	ActionTransfer,
	ActionEndConversation,
	ActionRequestMoreInfo,
	ActionOfferHelp,
}

// Valid reports whether a is a member of the closed enumeration.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// ParseAction converts a wire value into an Action.
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown dialogue action %q", ErrMalformedResponse, raw)
	}
	return a, nil
}

// Decision is the outcome of a dialogue turn. It is immutable once produced.
type Decision struct {
	NextState         State    `json:"next_state"`
	Action            Action   `json:"action"`
	ResponseType      string   `json:"response_type"`
	ShouldEscalate    bool     `json:"should_escalate"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	SuggestedResponse string   `json:"suggested_response,omitempty"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`

	// Fallback is set when the deterministic rule produced this decision
	// instead of the model. FallbackCause carries the absorbed error kind.
	Fallback      bool   `json:"fallback,omitempty"`
	FallbackCause string `json:"fallback_cause,omitempty"`
}

// Urgency grades how quickly a human agent should take over.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Valid reports whether u is a member of the closed enumeration.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// EscalationReport scores whether a conversation should move to a human agent.
type EscalationReport struct {
	ShouldEscalate     bool    `json:"should_escalate"`
	Urgency            Urgency `json:"urgency"`
	Reason             string  `json:"reason"`
	SuggestedAgentType string  `json:"suggested_agent_type"`
	CustomerSentiment  string  `json:"customer_sentiment"`
	EscalationScore    float64 `json:"escalation_score"`

	Fallback      bool   `json:"fallback,omitempty"`
	FallbackCause string `json:"fallback_cause,omitempty"`
}
