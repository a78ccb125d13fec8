package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// ReceiptRepository owns read state and unread accounting over a
// chat's messages.
type ReceiptRepository interface {
	MarkRead(ctx context.Context, chatID int, readerID int, asOf time.Time) (int, error)
	UnreadCount(ctx context.Context, chatID int, viewerID int) (int, error)
}

// ReceiptRepo is a sqlx-backed ReceiptRepository.
type ReceiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo constructs a ReceiptRepo.
func NewReceiptRepo(db *sqlx.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// MarkRead flags the other participant's messages up to the asOf
// watermark as read and returns how many rows flipped. Messages sent
// after asOf are never touched, so a send racing with the read scan
// cannot be marked by mistake. Re-running with the same watermark
// affects zero rows.
func (r *ReceiptRepo) MarkRead(ctx context.Context, chatID int, readerID int, asOf time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE
        WHERE chat_id=$1 AND sender_id<>$2 AND is_read=FALSE AND deleted=FALSE AND created_at<=$3`,
		chatID, readerID, asOf)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// UnreadCount counts messages the viewer has not read: sent by the
// other participant, unread, and not tombstoned.
func (r *ReceiptRepo) UnreadCount(ctx context.Context, chatID int, viewerID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE chat_id=$1 AND sender_id<>$2 AND is_read=FALSE AND deleted=FALSE`, chatID, viewerID)
	return count, err
}
