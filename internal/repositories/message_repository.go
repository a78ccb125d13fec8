package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotOwner        = errors.New("only the sender can delete a message")
)

// MessageRepository defines interactions for chat messages. Message
// ids (seq) are scoped to a chat and assigned here.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, text string, mediaRef *string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	GetMessage(ctx context.Context, chatID int, seq int) (models.Message, error)
	SoftDeleteMessage(ctx context.Context, chatID int, seq int, requesterID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, seq, sender_id, text, media_ref, is_read, deleted, created_at`

// CreateMessage appends a message to the chat and assigns the next
// per-chat seq. The chat row lock is the single serialization point
// per chat: concurrent sends queue up on it, so seq stays monotonic
// regardless of the senders' wall clocks.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, text string, mediaRef *string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	err = tx.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1 FOR UPDATE`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrChatNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if chat.Deleted {
		return models.Message{}, ErrChatNotFound
	}

	var msg models.Message
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, seq, sender_id, text, media_ref)
        SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4 FROM messages WHERE chat_id = $1
        RETURNING `+messageColumns, chatID, senderID, text, mediaRef).StructScan(&msg)
	if err != nil {
		return models.Message{}, err
	}
	return msg, tx.Commit()
}

// ListMessages returns all messages of a chat ascending by seq,
// tombstones included. Read state is untouched; marking messages read
// is a separate call.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE chat_id=$1 ORDER BY seq ASC`, chatID)
	return msgs, err
}

// GetMessage retrieves a single message by chat and seq.
func (r *MessageRepo) GetMessage(ctx context.Context, chatID int, seq int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE chat_id=$1 AND seq=$2`, chatID, seq)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDeleteMessage tombstones a message: payload cleared, seq and
// position retained. Only the sender may delete; deleting an already
// deleted message is a no-op success.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, chatID int, seq int, requesterID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET deleted=TRUE, text='', media_ref=NULL
        WHERE chat_id=$1 AND seq=$2 AND sender_id=$3`, chatID, seq, requesterID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing message from a foreign one.
	if _, err := r.GetMessage(ctx, chatID, seq); err != nil {
		return err
	}
	return ErrNotOwner
}
