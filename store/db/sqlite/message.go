package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parrotflow/converse/nlu"
	"github.com/parrotflow/converse/store"
)

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.Sender != nil {
		where, args = append(where, "sender = "+placeholder(len(args)+1)), append(args, string(*find.Sender))
	}

	query := `SELECT id, conversation_id, sender, content, created_ts, entities FROM message WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		message := &store.Message{}
		var entitiesJSON string
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.Sender,
			&message.Content,
			&message.CreatedTs,
			&entitiesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if entitiesJSON != "" {
			if err := json.Unmarshal([]byte(entitiesJSON), &message.Entities); err != nil {
				return nil, fmt.Errorf("failed to decode message entities: %w", err)
			}
		}
		list = append(list, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message WHERE conversation_id = ?`, conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func encodeEntities(entities []nlu.Entity) (string, error) {
	if len(entities) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("failed to encode message entities: %w", err)
	}
	return string(raw), nil
}
