package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrSelfChat     = errors.New("cannot create chat with self")
)

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userID int, otherID int) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error)
	SoftDeleteChat(ctx context.Context, chatID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func normalizePair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

const chatColumns = `id, user1_id, user2_id, deleted, created_at`

// CreateOrGetChat returns the single live chat for the unordered user
// pair, creating it if absent. The second return value reports whether
// this call created the chat. The dedup key is the partial unique
// index on live pairs, so concurrent calls resolve to the same chat id
// while a pair whose previous chat was deleted gets a brand-new row:
// fresh id, empty message log, seq restarting at 1. The old chat's
// tombstones stay behind the deleted row and are never served again.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID int, otherID int) (models.Chat, bool, error) {
	if userID == otherID {
		return models.Chat{}, false, ErrSelfChat
	}
	user1, user2 := normalizePair(userID, otherID)

	var chat models.Chat
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chats (user1_id, user2_id) VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) WHERE deleted = FALSE DO NOTHING
        RETURNING `+chatColumns, user1, user2).StructScan(&chat)
	if err == nil {
		return chat, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, err
	}

	// Insert returned no row: the pair already has a live chat (or
	// another caller just won the race for it).
	if err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2 AND deleted=FALSE`, user1, user2); err != nil {
		return models.Chat{}, false, err
	}
	return chat, false, nil
}

// GetChat fetches a live chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1 AND deleted=FALSE`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to a live chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND deleted=FALSE AND (user1_id=$2 OR user2_id=$2))`, chatID, userID)
	return exists, err
}

// ListChats returns the user's chats ordered by most recent activity:
// the newest non-deleted message's timestamp, or the chat creation
// time for empty chats. The ordering and unread counts are recomputed
// on every call.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	query := `SELECT c.id, c.user1_id, c.user2_id, c.created_at,
            lm.seq AS last_seq, lm.sender_id AS last_sender_id, lm.text AS last_text, lm.created_at AS last_created_at,
            COALESCE(un.unread, 0) AS unread_count,
            COALESCE(lm.created_at, c.created_at) AS last_activity
        FROM chats c
        LEFT JOIN LATERAL (
            SELECT m.seq, m.sender_id, m.text, m.created_at
            FROM messages m
            WHERE m.chat_id = c.id AND m.deleted = FALSE
            ORDER BY m.seq DESC LIMIT 1
        ) lm ON TRUE
        LEFT JOIN LATERAL (
            SELECT COUNT(*) AS unread
            FROM messages m
            WHERE m.chat_id = c.id AND m.sender_id <> $1 AND m.is_read = FALSE AND m.deleted = FALSE
        ) un ON TRUE
        WHERE (c.user1_id=$1 OR c.user2_id=$1) AND c.deleted = FALSE
        ORDER BY COALESCE(lm.created_at, c.created_at) DESC, c.id DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ChatSummary
	for rows.Next() {
		var row struct {
			models.Chat
			LastSeq       sql.NullInt64  `db:"last_seq"`
			LastSenderID  sql.NullInt64  `db:"last_sender_id"`
			LastText      sql.NullString `db:"last_text"`
			LastCreatedAt sql.NullTime   `db:"last_created_at"`
			UnreadCount   int            `db:"unread_count"`
			LastActivity  sql.NullTime   `db:"last_activity"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		summary := models.ChatSummary{
			ChatID:       row.ID,
			Participants: [2]int{row.User1ID, row.User2ID},
			FriendID:     row.OtherParticipant(userID),
			UnreadCount:  row.UnreadCount,
			LastActivity: row.CreatedAt,
			CreatedAt:    row.CreatedAt,
		}
		if row.LastActivity.Valid {
			summary.LastActivity = row.LastActivity.Time
		}
		if row.LastSeq.Valid {
			summary.LastMessage = &models.LastMessage{
				MessageID: int(row.LastSeq.Int64),
				SenderID:  int(row.LastSenderID.Int64),
				Text:      row.LastText.String,
				CreatedAt: row.LastCreatedAt.Time,
			}
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

// SoftDeleteChat removes the chat from both participants' views and
// tombstones its messages. Nothing is physically erased.
func (r *ChatRepo) SoftDeleteChat(ctx context.Context, chatID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET deleted=TRUE WHERE id=$1 AND deleted=FALSE`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE messages SET deleted=TRUE, text='', media_ref=NULL WHERE chat_id=$1`, chatID); err != nil {
		return err
	}
	return tx.Commit()
}
