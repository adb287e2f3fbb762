package storage

import "context"

type Repository interface {
	EnsureSchema(ctx context.Context) error

	// RecordNotification upserts by tx hash: повторная доставка (edit)
	// обновляет confirmed/message_id, а не плодит строки.
	RecordNotification(ctx context.Context, rec NotificationRecord) error

	ListRecent(ctx context.Context, limit int) ([]NotificationRecord, error)
}
