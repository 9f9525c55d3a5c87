package postgres

import (
	"context"
	"fmt"

	"github.com/parrotflow/converse/store"
)

// SaveConversation applies one conversation checkpoint atomically: the
// conversation row is upserted, messages are inserted when new, and memory
// segments are replaced per segment type.
func (d *DB) SaveConversation(ctx context.Context, save *store.ConversationSave) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if save.Conversation != nil {
		c := save.Conversation
		stmt := `INSERT INTO conversation (id, user_id, status, title, created_ts, updated_ts)
			VALUES (` + placeholders(6) + `)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				title = EXCLUDED.title,
				updated_ts = EXCLUDED.updated_ts`
		if _, err := tx.ExecContext(ctx, stmt, c.ID, c.UserID, string(c.Status), c.Title, c.CreatedTs, c.UpdatedTs); err != nil {
			return fmt.Errorf("failed to upsert conversation: %w", err)
		}
	}

	for _, message := range save.Messages {
		entitiesJSON, err := encodeEntities(message.Entities)
		if err != nil {
			return err
		}
		stmt := `INSERT INTO message (id, conversation_id, sender, content, created_ts, entities)
			VALUES (` + placeholders(6) + `)
			ON CONFLICT (id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, stmt,
			message.ID, message.ConversationID, string(message.Sender),
			message.Content, message.CreatedTs, entitiesJSON); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	for _, segment := range save.Segments {
		stmt := `INSERT INTO memory_segment (conversation_id, segment_type, content, created_ts, embedding)
			VALUES (` + placeholders(5) + `)
			ON CONFLICT (conversation_id, segment_type) DO UPDATE SET
				content = EXCLUDED.content,
				created_ts = EXCLUDED.created_ts,
				embedding = EXCLUDED.embedding`
		if _, err := tx.ExecContext(ctx, stmt,
			segment.ConversationID, segment.SegmentType, segment.Content,
			segment.CreatedTs, encodeEmbedding(segment.Embedding)); err != nil {
			return fmt.Errorf("failed to upsert memory segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
