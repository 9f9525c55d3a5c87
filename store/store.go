package store

import (
	"context"
	"time"

	"github.com/parrotflow/converse/internal/profile"
	"github.com/parrotflow/converse/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	conversationCache *cache.Cache // cache for conversation records
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:            driver,
		profile:           profile,
		cacheConfig:       cacheConfig,
		conversationCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.conversationCache.Close()

	return s.driver.Close()
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// SaveConversation persists a conversation checkpoint atomically and
// refreshes the conversation cache.
func (s *Store) SaveConversation(ctx context.Context, save *ConversationSave) error {
	if err := s.driver.SaveConversation(ctx, save); err != nil {
		return err
	}
	if save.Conversation != nil {
		s.conversationCache.Set(ctx, save.Conversation.ID, save.Conversation)
	}
	return nil
}

// GetConversation returns one conversation by id, or nil when absent.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	if cached, ok := s.conversationCache.Get(ctx, id); ok {
		return cached.(*Conversation), nil
	}

	list, err := s.driver.ListConversations(ctx, &FindConversation{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	conversation := list[0]
	s.conversationCache.Set(ctx, conversation.ID, conversation)
	return conversation, nil
}

// ListConversations returns conversations matching find.
func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// UpdateConversation applies a partial update and invalidates the cache.
func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) error {
	if err := s.driver.UpdateConversation(ctx, update); err != nil {
		return err
	}
	s.conversationCache.Delete(ctx, update.ID)
	return nil
}

// DeleteConversation removes a conversation and its dependent rows.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if err := s.driver.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.conversationCache.Delete(ctx, id)
	return nil
}

// ListMessages returns messages matching find, ordered by creation time.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

// CountMessages returns the number of messages in a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	return s.driver.CountMessages(ctx, conversationID)
}

// ListMemorySegments returns memory segments matching find.
func (s *Store) ListMemorySegments(ctx context.Context, find *FindMemorySegment) ([]*MemorySegmentRecord, error) {
	return s.driver.ListMemorySegments(ctx, find)
}
