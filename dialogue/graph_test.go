package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     State
		expected []State
	}{
		{
			name:     "Greeting",
			from:     StateGreeting,
			expected: []State{StateInformationGathering, StateProblemSolving, StateTransaction, StateSupport},
		},
		{
			name:     "Escalation only concludes",
			from:     StateEscalation,
			expected: []State{StateConclusion},
		},
		{
			name:     "Conclusion readmits greeting",
			from:     StateConclusion,
			expected: []State{StateIdle, StateGreeting},
		},
		{
			name:     "Idle resumes",
			from:     StateIdle,
			expected: []State{StateGreeting, StateInformationGathering, StateProblemSolving},
		},
		{
			name:     "PolicyInquiry mirrors InformationGathering",
			from:     StatePolicyInquiry,
			expected: []State{StateProblemSolving, StateTransaction, StateSupport, StateConclusion},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AllowedTransitions(tt.from))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("LegalEdges", func(t *testing.T) {
		assert.True(t, ValidateTransition(StateGreeting, StateSupport))
		assert.True(t, ValidateTransition(StateProblemSolving, StateEscalation))
		assert.True(t, ValidateTransition(StateConclusion, StateGreeting))
	})

	t.Run("IllegalEdges", func(t *testing.T) {
		assert.False(t, ValidateTransition(StateGreeting, StateEscalation))
		assert.False(t, ValidateTransition(StateEscalation, StateGreeting))
		assert.False(t, ValidateTransition(StateTransaction, StateEscalation))
	})

	t.Run("PolicyInquiryAlwaysEnterable", func(t *testing.T) {
		for _, from := range States {
			assert.True(t, ValidateTransition(from, StatePolicyInquiry), "from %s", from)
		}
	})

	// Exhaustive agreement between ValidateTransition and AllowedTransitions.
	t.Run("MatchesAllowedSet", func(t *testing.T) {
		for _, from := range States {
			allowed := make(map[State]bool)
			for _, to := range AllowedTransitions(from) {
				allowed[to] = true
			}
			for _, to := range States {
				if to == StatePolicyInquiry {
					continue
				}
				assert.Equal(t, allowed[to], ValidateTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("NoTerminalState", func(t *testing.T) {
		for _, s := range States {
			require.NotEmpty(t, AllowedTransitions(s), "state %s has no successors", s)
		}
	})
}

func TestParseState(t *testing.T) {
	s, err := ParseState("problem_solving")
	require.NoError(t, err)
	assert.Equal(t, StateProblemSolving, s)

	_, err = ParseState("PROBLEM_SOLVING")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseState("daydreaming")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("ask_question")
	require.NoError(t, err)
	assert.Equal(t, ActionAskQuestion, a)

	_, err = ParseAction("interpretive_dance")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
