package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/dialogue"
	"github.com/parrotflow/converse/nlu"
	"github.com/parrotflow/converse/store"
	"github.com/parrotflow/converse/timeout"
)

const (
	// DefaultMaxActive bounds the in-process memory cache.
	DefaultMaxActive = 1000
	// DefaultMaxMemoryAge is how long an untouched cached memory survives.
	DefaultMaxMemoryAge = 24 * time.Hour
	// defaultCleanupInterval paces the opportunistic eviction sweep.
	defaultCleanupInterval = 1 * time.Hour

	// maxEntitiesPerMessage caps the entities attached to a stored message.
	maxEntitiesPerMessage = 5
)

// messageNamespace seeds deterministic message IDs so that re-saving the
// same conversation never duplicates rows.
var messageNamespace = uuid.MustParse("9b1caa32-6f84-4a5e-8e57-1a3fc0c7b9d4")

// Service synthesizes, persists, and recalls conversation memories. Saved
// memories are cached in process; the cache is bounded by age and size.
type Service struct {
	store       *store.Store
	synthesizer *Synthesizer

	maxActive    int
	maxMemoryAge time.Duration

	mu          sync.Mutex
	active      map[string]*ConversationMemory
	lastCleanup time.Time

	group singleflight.Group
	now   func() time.Time
}

// NewService creates a memory service on top of the store. synthesizer must
// not be nil.
func NewService(st *store.Store, synthesizer *Synthesizer) *Service {
	return &Service{
		store:        st,
		synthesizer:  synthesizer,
		maxActive:    DefaultMaxActive,
		maxMemoryAge: DefaultMaxMemoryAge,
		active:       make(map[string]*ConversationMemory),
		lastCleanup:  time.Now(),
		now:          time.Now,
	}
}

// Save synthesizes the context into memory segments and persists the
// conversation checkpoint in one transaction. Returns false with the error
// when persistence fails; the live context is untouched either way.
func (s *Service) Save(ctx context.Context, c *conversation.Context) (bool, error) {
	segments := s.synthesizer.Synthesize(c)
	s.synthesizer.Embed(ctx, segments)

	save, err := s.buildSave(c, segments)
	if err != nil {
		return false, err
	}

	saveCtx, cancel := context.WithTimeout(ctx, timeout.SaveTimeout)
	defer cancel()
	if err := s.store.SaveConversation(saveCtx, save); err != nil {
		return false, fmt.Errorf("save conversation %s: %w", c.ConversationID, err)
	}

	s.cacheMemory(s.buildMemory(c, segments))
	s.cleanupIfNeeded()

	slog.Info("conversation memory saved",
		"conversation_id", c.ConversationID,
		"segments", len(segments),
		"messages", len(c.Window))
	return true, nil
}

// buildSave assembles the transactional checkpoint for the store.
func (s *Service) buildSave(c *conversation.Context, segments []Segment) (*store.ConversationSave, error) {
	save := &store.ConversationSave{
		Conversation: &store.Conversation{
			ID:        c.ConversationID,
			UserID:    c.UserID,
			Status:    store.ConversationStatusActive,
			Title:     Title(c),
			CreatedTs: c.SessionStart.Unix(),
			UpdatedTs: c.LastActivity.Unix(),
		},
	}

	for _, turn := range c.Window {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		message := &store.Message{
			ID:             messageID(c.ConversationID, turn.Sequence),
			ConversationID: c.ConversationID,
			Sender:         store.MessageSenderUser,
			Content:        turn.Content,
			CreatedTs:      turn.Timestamp.Unix(),
		}
		if turn.Role == "assistant" {
			message.Sender = store.MessageSenderAssistant
		} else if len(c.Entities) > 0 {
			entities := c.Entities
			if len(entities) > maxEntitiesPerMessage {
				entities = entities[:maxEntitiesPerMessage]
			}
			message.Entities = entities
		}
		save.Messages = append(save.Messages, message)
	}

	for _, segment := range segments {
		record, err := segmentRecord(segment)
		if err != nil {
			return nil, err
		}
		save.Segments = append(save.Segments, record)
	}
	return save, nil
}

// messageID derives a stable ID from the conversation and sequence number,
// so saving the same window twice upserts rather than duplicates.
func messageID(conversationID string, sequence int64) string {
	return uuid.NewSHA1(messageNamespace, []byte(fmt.Sprintf("%s:%d", conversationID, sequence))).String()
}

func (s *Service) buildMemory(c *conversation.Context, segments []Segment) *ConversationMemory {
	timeline := make([]SentimentPoint, 0, len(c.SentimentHistory))
	for i, sentiment := range c.SentimentHistory {
		point := SentimentPoint{Sentiment: sentiment}
		if i < len(c.Window) {
			point.Timestamp = c.Window[i].Timestamp
		} else {
			point.Timestamp = c.LastActivity
		}
		timeline = append(timeline, point)
	}

	return &ConversationMemory{
		ConversationID:    c.ConversationID,
		UserID:            c.UserID,
		Title:             Title(c),
		CreatedAt:         c.SessionStart,
		UpdatedAt:         s.now(),
		MessageCount:      c.MessageCount,
		FinalState:        c.CurrentState,
		KeyPoints:         append(append([]string{}, c.Goals...), c.ResolvedTopics...),
		Entities:          append([]nlu.Entity{}, c.Entities...),
		SentimentTimeline: timeline,
		TopicsDiscussed:   append([]string{}, c.Goals...),
		ResolutionStatus:  ResolutionActive,
		Metadata:          c.Metadata,
		Segments:          segments,
	}
}

func (s *Service) cacheMemory(memory *ConversationMemory) {
	s.mu.Lock()
	s.active[memory.ConversationID] = memory
	s.mu.Unlock()
}

// Load returns the memory for a conversation, rebuilding it from storage on
// a cache miss. Rebuilt memories carry only what the database holds:
// entities and sentiment come back, synthesized key points do not. Returns
// nil when the conversation was never saved.
func (s *Service) Load(ctx context.Context, conversationID string) (*ConversationMemory, error) {
	s.mu.Lock()
	if memory, ok := s.active[conversationID]; ok {
		s.mu.Unlock()
		return memory, nil
	}
	s.mu.Unlock()

	// Cold loads for the same conversation share one database round trip.
	v, err, _ := s.group.Do(conversationID, func() (any, error) {
		return s.loadFromStore(ctx, conversationID)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	memory := v.(*ConversationMemory)
	s.cacheMemory(memory)
	return memory, nil
}

func (s *Service) loadFromStore(ctx context.Context, conversationID string) (*ConversationMemory, error) {
	record, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	if record == nil {
		return nil, nil
	}

	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
	if err != nil {
		return nil, fmt.Errorf("load messages for %s: %w", conversationID, err)
	}

	entities := []nlu.Entity{}
	for _, message := range messages {
		entities = append(entities, message.Entities...)
	}

	resolution := ResolutionActive
	finalState := dialogue.StateInformationGathering
	if record.Status == store.ConversationStatusCompleted {
		resolution = ResolutionCompleted
		finalState = dialogue.StateConclusion
	}

	return &ConversationMemory{
		ConversationID:    record.ID,
		UserID:            record.UserID,
		Title:             record.Title,
		CreatedAt:         time.Unix(record.CreatedTs, 0),
		UpdatedAt:         time.Unix(record.UpdatedTs, 0),
		MessageCount:      len(messages),
		FinalState:        finalState,
		KeyPoints:         []string{},
		Entities:          entities,
		SentimentTimeline: []SentimentPoint{},
		TopicsDiscussed:   []string{},
		ResolutionStatus:  resolution,
		Metadata:          map[string]any{},
		Segments:          []Segment{},
	}, nil
}

// Complete marks a stored conversation as completed.
func (s *Service) Complete(ctx context.Context, conversationID string) error {
	status := store.ConversationStatusCompleted
	updatedTs := s.now().Unix()
	if err := s.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:        conversationID,
		Status:    &status,
		UpdatedTs: &updatedTs,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	if memory, ok := s.active[conversationID]; ok {
		memory.ResolutionStatus = ResolutionCompleted
	}
	s.mu.Unlock()
	return nil
}

// cleanupIfNeeded runs the eviction sweep at most once per interval.
func (s *Service) cleanupIfNeeded() {
	s.mu.Lock()
	due := s.now().Sub(s.lastCleanup) > defaultCleanupInterval
	if due {
		s.lastCleanup = s.now()
	}
	s.mu.Unlock()

	if due {
		s.Evict()
	}
}

// Evict removes cached memories older than the age bound, then trims the
// cache to its size bound by dropping the least recently updated entries.
// Returns the number of entries removed.
func (s *Service) Evict() int {
	cutoff := s.now().Add(-s.maxMemoryAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, memory := range s.active {
		if memory.UpdatedAt.Before(cutoff) {
			delete(s.active, id)
			removed++
			slog.Info("cleaned up old conversation memory", "conversation_id", id)
		}
	}

	if len(s.active) > s.maxActive {
		type entry struct {
			id        string
			updatedAt time.Time
		}
		entries := make([]entry, 0, len(s.active))
		for id, memory := range s.active {
			entries = append(entries, entry{id, memory.UpdatedAt})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].updatedAt.Before(entries[j].updatedAt)
		})
		for _, e := range entries[:len(s.active)-s.maxActive] {
			delete(s.active, e.id)
			removed++
		}
	}
	return removed
}

// ActiveCount returns the number of cached memories.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// HistoryEntry is one row of a user's conversation history.
type HistoryEntry struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	MessageCount   int    `json:"message_count"`
}

// History returns a user's conversations, most recently updated first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	conversations, err := s.store.ListConversations(ctx, &store.FindConversation{
		UserID: &userID,
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations for user %s: %w", userID, err)
	}

	history := make([]HistoryEntry, 0, len(conversations))
	for _, c := range conversations {
		count, err := s.store.CountMessages(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("count messages for %s: %w", c.ID, err)
		}
		history = append(history, HistoryEntry{
			ConversationID: c.ID,
			Title:          c.Title,
			Status:         string(c.Status),
			CreatedAt:      time.Unix(c.CreatedTs, 0).UTC().Format(time.RFC3339),
			UpdatedAt:      time.Unix(c.UpdatedTs, 0).UTC().Format(time.RFC3339),
			MessageCount:   count,
		})
	}
	return history, nil
}

// Title derives a human-readable title for the conversation: the first goal,
// then the first product entity, then a truncated id.
func Title(c *conversation.Context) string {
	if len(c.Goals) > 0 {
		return fmt.Sprintf("Discussion about %s", c.Goals[0])
	}
	for _, e := range c.Entities {
		if e.Label == "PRODUCT" {
			return fmt.Sprintf("About %s", e.Text)
		}
	}
	id := c.ConversationID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Conversation %s", id)
}
