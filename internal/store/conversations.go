package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itsjustmithun/ai-council/internal/council"
)

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn in a conversation. Assistant turns carry the
// full deliberation record alongside the chairman's final text.
type Message struct {
	ID        uuid.UUID                `json:"id"`
	Role      string                   `json:"role"`
	Content   string                   `json:"content"`
	Stage1    []council.ModelResponse  `json:"stage1,omitempty"`
	Labels    council.LabelMap         `json:"label_to_model,omitempty"`
	Stage2    []council.RankingRecord  `json:"stage2,omitempty"`
	Aggregate []council.AggregateEntry `json:"aggregate_rankings,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

func (s *Store) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		conv.ID, conv.Title, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, []Message, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("get conversation: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, role, content, stage1, label_map, stage2, aggregate, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var stage1, labels, stage2, aggregate []byte
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &stage1, &labels, &stage2, &aggregate, &m.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan message: %w", err)
		}
		if stage1 != nil {
			if err := json.Unmarshal(stage1, &m.Stage1); err != nil {
				return nil, nil, fmt.Errorf("decode stage1: %w", err)
			}
		}
		if labels != nil {
			if err := json.Unmarshal(labels, &m.Labels); err != nil {
				return nil, nil, fmt.Errorf("decode label map: %w", err)
			}
		}
		if stage2 != nil {
			if err := json.Unmarshal(stage2, &m.Stage2); err != nil {
				return nil, nil, fmt.Errorf("decode stage2: %w", err)
			}
		}
		if aggregate != nil {
			if err := json.Unmarshal(aggregate, &m.Aggregate); err != nil {
				return nil, nil, fmt.Errorf("decode aggregate: %w", err)
			}
		}
		msgs = append(msgs, m)
	}
	return &c, msgs, rows.Err()
}

func (s *Store) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}

func (s *Store) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations SET title = $1, updated_at = now() WHERE id = $2`,
		title, id,
	)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (s *Store) AddUserMessage(ctx context.Context, conversationID uuid.UUID, content string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, 'user', $3)`,
		uuid.New(), conversationID, content,
	)
	if err != nil {
		return fmt.Errorf("insert user message: %w", err)
	}
	return nil
}

// AddAssistantMessage stores the chairman's answer together with the
// full deliberation record for later replay.
func (s *Store) AddAssistantMessage(ctx context.Context, conversationID uuid.UUID, res *council.Result) error {
	stage1, err := json.Marshal(res.Stage1)
	if err != nil {
		return fmt.Errorf("marshal stage1: %w", err)
	}
	labels, err := json.Marshal(res.Labels)
	if err != nil {
		return fmt.Errorf("marshal label map: %w", err)
	}
	stage2, err := json.Marshal(res.Stage2)
	if err != nil {
		return fmt.Errorf("marshal stage2: %w", err)
	}
	aggregate, err := json.Marshal(res.Aggregate)
	if err != nil {
		return fmt.Errorf("marshal aggregate: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, stage1, label_map, stage2, aggregate)
		VALUES ($1, $2, 'assistant', $3, $4, $5, $6, $7)`,
		uuid.New(), conversationID, res.Final, stage1, labels, stage2, aggregate,
	)
	if err != nil {
		return fmt.Errorf("insert assistant message: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return tx.Commit(ctx)
}
