package dialogue

// transitions is the data-defined dialogue graph. Every legal successor is
// listed here; no call site duplicates transition logic.
//
// POLICY_INQUIRY is intentionally absent as an edge target: entry into it is
// an explicit override triggered by policy-intent detection and is legal from
// any state. Its outgoing edges mirror INFORMATION_GATHERING's.
var transitions = map[State][]State{
	StateGreeting: {
		StateInformationGathering,
		StateProblemSolving,
		StateTransaction,
		StateSupport,
	},
	StateInformationGathering: {
		StateProblemSolving,
		StateTransaction,
		StateSupport,
		StateConclusion,
	},
	StateProblemSolving: {
		StateInformationGathering,
		StateTransaction,
		StateSupport,
		StateEscalation,
		StateConclusion,
	},
	StateTransaction: {
		StateInformationGathering,
		StateProblemSolving,
		StateConclusion,
	},
	StateSupport: {
		StateInformationGathering,
		StateProblemSolving,
		StateEscalation,
		StateConclusion,
	},
	StateEscalation: {
		StateConclusion,
	},
	StateConclusion: {
		StateIdle,
		StateGreeting, // user starts a new topic
	},
	StateIdle: {
		StateGreeting,
		StateInformationGathering,
		StateProblemSolving,
	},
}

// AllowedTransitions returns the legal successor states of s.
// The returned slice is a copy and safe to modify.
func AllowedTransitions(s State) []State {
	var successors []State
	if s == StatePolicyInquiry {
		successors = transitions[StateInformationGathering]
	} else {
		successors = transitions[s]
	}
	out := make([]State, len(successors))
	copy(out, successors)
	return out
}

// ValidateTransition reports whether from -> to is a legal edge.
// Entry into POLICY_INQUIRY is always legal.
func ValidateTransition(from, to State) bool {
	if to == StatePolicyInquiry {
		return true
	}
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}
