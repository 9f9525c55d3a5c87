package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
)

func newTestManager(maxLen int, maxAge time.Duration) (*Manager, *time.Time) {
	m := NewManager(maxLen, maxAge)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManagerGetOrCreate(t *testing.T) {
	m, _ := newTestManager(0, 0)

	c := m.GetOrCreate("conv-1", "user-1")
	require.NotNil(t, c)
	assert.Equal(t, "conv-1", c.ConversationID)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, dialogue.StateGreeting, c.CurrentState)
	assert.Zero(t, c.MessageCount)
	assert.Empty(t, c.Window)
	assert.Empty(t, c.PreviousStates)

	// Second call returns the same context, not a fresh one.
	m.Update("conv-1", "hello", nlu.Result{}, "")
	again := m.GetOrCreate("conv-1", "user-1")
	assert.Equal(t, 1, again.MessageCount)
	assert.Equal(t, 1, m.Len())
}

func TestManagerUpdate(t *testing.T) {
	m, _ := newTestManager(0, 0)

	res := nlu.Result{
		Intent:    "order_status",
		Sentiment: "negative",
		Entities: []nlu.Entity{
			{Text: "ORD-123", Label: "ORDER_NUMBER", Confidence: 0.9},
		},
	}
	c := m.Update("conv-1", "where is my order ORD-123?", res, "Let me check that for you.")

	assert.Equal(t, 1, c.MessageCount)
	require.Len(t, c.Window, 2)
	assert.Equal(t, "user", c.Window[0].Role)
	assert.Equal(t, int64(1), c.Window[0].Sequence)
	assert.Equal(t, "assistant", c.Window[1].Role)
	assert.Equal(t, int64(2), c.Window[1].Sequence)
	require.Len(t, c.Entities, 1)
	assert.Equal(t, "ORD-123", c.Entities[0].Text)
	assert.Equal(t, []string{"negative"}, c.SentimentHistory)

	// Missing sentiment defaults to neutral; sequences keep increasing.
	c = m.Update("conv-1", "thanks", nlu.Result{}, "")
	assert.Equal(t, 2, c.MessageCount)
	assert.Equal(t, []string{"negative", "neutral"}, c.SentimentHistory)
	assert.Equal(t, int64(3), c.Window[len(c.Window)-1].Sequence)
}

func TestManagerWindowTrimming(t *testing.T) {
	t.Run("CountBound", func(t *testing.T) {
		m, _ := newTestManager(6, 0)

		var c *Context
		for i := 0; i < 10; i++ {
			c = m.Update("conv-1", fmt.Sprintf("message %d", i), nlu.Result{}, "ok")
			assert.LessOrEqual(t, len(c.Window), 6)
		}
		// Oldest entries gone, newest kept, sequence order preserved.
		require.Len(t, c.Window, 6)
		assert.Equal(t, int64(15), c.Window[0].Sequence)
		assert.Equal(t, int64(20), c.Window[5].Sequence)
		assert.Equal(t, 10, c.MessageCount)
	})

	t.Run("AgeBound", func(t *testing.T) {
		m, now := newTestManager(0, 24*time.Hour)

		m.Update("conv-1", "old message", nlu.Result{}, "ok")
		*now = now.Add(25 * time.Hour)
		c := m.Update("conv-1", "fresh message", nlu.Result{}, "ok")

		require.Len(t, c.Window, 2)
		for _, turn := range c.Window {
			assert.Equal(t, *now, turn.Timestamp)
		}
		// Counters are untouched by trimming.
		assert.Equal(t, 2, c.MessageCount)
		assert.Equal(t, int64(4), c.LastSequence)
	})
}

func TestManagerAdvanceState(t *testing.T) {
	m, _ := newTestManager(0, 0)
	m.GetOrCreate("conv-1", "user-1")

	require.NoError(t, m.AdvanceState("conv-1", dialogue.StateInformationGathering))
	require.NoError(t, m.AdvanceState("conv-1", dialogue.StateProblemSolving))

	c, ok := m.Snapshot("conv-1")
	require.True(t, ok)
	assert.Equal(t, dialogue.StateProblemSolving, c.CurrentState)
	assert.Equal(t, []dialogue.State{dialogue.StateGreeting, dialogue.StateInformationGathering}, c.PreviousStates)

	t.Run("IllegalTransition", func(t *testing.T) {
		err := m.AdvanceState("conv-1", dialogue.StateGreeting)
		require.Error(t, err)
		assert.ErrorIs(t, err, dialogue.ErrInvalidTransition)

		// State unchanged after the rejected transition.
		c, ok := m.Snapshot("conv-1")
		require.True(t, ok)
		assert.Equal(t, dialogue.StateProblemSolving, c.CurrentState)
	})

	t.Run("SelfTransitionIsNoop", func(t *testing.T) {
		require.NoError(t, m.AdvanceState("conv-1", dialogue.StateProblemSolving))
		c, _ := m.Snapshot("conv-1")
		assert.Len(t, c.PreviousStates, 2)
	})

	t.Run("PolicyInquiryAlwaysAllowed", func(t *testing.T) {
		require.NoError(t, m.AdvanceState("conv-1", dialogue.StatePolicyInquiry))
	})
}

func TestManagerMutators(t *testing.T) {
	m, _ := newTestManager(0, 0)
	m.GetOrCreate("conv-1", "user-1")

	m.AddGoal("conv-1", "resolve billing issue")
	m.AddGoal("conv-1", "resolve billing issue") // duplicate ignored
	m.AddPendingQuestion("conv-1", "refund policy")
	m.AddEscalationTrigger("conv-1", "customer requested manager")
	m.MarkResolved("conv-1", "refund policy")

	c, ok := m.Snapshot("conv-1")
	require.True(t, ok)
	assert.Equal(t, []string{"resolve billing issue"}, c.Goals)
	assert.Empty(t, c.PendingQuestions)
	assert.Equal(t, []string{"refund policy"}, c.ResolvedTopics)
	assert.Equal(t, []string{"customer requested manager"}, c.EscalationTriggers)
}

func TestManagerSnapshotIsolation(t *testing.T) {
	m, _ := newTestManager(0, 0)
	m.Update("conv-1", "hello", nlu.Result{Sentiment: "positive"}, "")

	c, ok := m.Snapshot("conv-1")
	require.True(t, ok)
	c.SentimentHistory[0] = "mutated"
	c.Window[0].Content = "mutated"
	c.Metadata["poison"] = true

	fresh, _ := m.Snapshot("conv-1")
	assert.Equal(t, "positive", fresh.SentimentHistory[0])
	assert.Equal(t, "hello", fresh.Window[0].Content)
	assert.NotContains(t, fresh.Metadata, "poison")
}

func TestManagerSweepIdle(t *testing.T) {
	m, now := newTestManager(0, 0)

	m.Update("stale", "old", nlu.Result{}, "")
	*now = now.Add(30 * time.Hour)
	m.Update("fresh", "new", nlu.Result{}, "")

	removed := m.SweepIdle(24 * time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())

	_, ok := m.Snapshot("stale")
	assert.False(t, ok)
	_, ok = m.Snapshot("fresh")
	assert.True(t, ok)
}

func TestManagerConcurrentUpdates(t *testing.T) {
	m := NewManager(100, 0)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Update("conv-1", "msg", nlu.Result{}, "")
			}
		}()
	}
	wg.Wait()

	c, ok := m.Snapshot("conv-1")
	require.True(t, ok)
	assert.Equal(t, workers*perWorker, c.MessageCount)
	assert.Equal(t, int64(workers*perWorker), c.LastSequence)

	// Sequences within the window are strictly increasing.
	for i := 1; i < len(c.Window); i++ {
		assert.Greater(t, c.Window[i].Sequence, c.Window[i-1].Sequence)
	}
}

func TestCleanupJobLifecycle(t *testing.T) {
	m, now := newTestManager(0, 0)
	m.Update("stale", "old", nlu.Result{}, "")
	*now = now.Add(48 * time.Hour)

	job := NewCleanupJob(m, CleanupConfig{MaxIdle: 24 * time.Hour, CleanupInterval: time.Hour})
	assert.False(t, job.IsRunning())

	removed := job.RunOnce()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, m.Len())
}

func TestCleanupJobRunsRegisteredSweeps(t *testing.T) {
	m, _ := newTestManager(0, 0)

	swept := 0
	job := NewCleanupJob(m, DefaultCleanupConfig())
	job.AddSweep("memory", func() int {
		swept++
		return 3
	})

	assert.Equal(t, 3, job.RunOnce())
	assert.Equal(t, 1, swept)
}
