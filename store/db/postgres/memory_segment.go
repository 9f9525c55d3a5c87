package postgres

import (
	"context"
	"fmt"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/parrotflow/converse/store"
)

func (d *DB) ListMemorySegments(ctx context.Context, find *store.FindMemorySegment) ([]*store.MemorySegmentRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}
	if find.SegmentType != nil {
		where, args = append(where, "segment_type = "+placeholder(len(args)+1)), append(args, *find.SegmentType)
	}

	query := `SELECT conversation_id, segment_type, content, created_ts, embedding FROM memory_segment WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_ts ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory segments: %w", err)
	}
	defer rows.Close()

	list := []*store.MemorySegmentRecord{}
	for rows.Next() {
		segment := &store.MemorySegmentRecord{}
		var embedding *pgvector.Vector
		if err := rows.Scan(
			&segment.ConversationID,
			&segment.SegmentType,
			&segment.Content,
			&segment.CreatedTs,
			&embedding,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory segment: %w", err)
		}
		if embedding != nil {
			segment.Embedding = embedding.Slice()
		}
		list = append(list, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// encodeEmbedding renders an embedding as a pgvector value, or NULL when
// absent.
func encodeEmbedding(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
