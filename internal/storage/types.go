package storage

import "time"

type NotificationRecord struct {
	Hash     string
	ChainID  int64
	FromAddr string
	ToAddr   *string
	ValueWei string // big.Int как строка

	Confirmed bool
	MessageID int

	BlockNum  *uint64
	BlockTime *time.Time

	DeliveredAt time.Time
}
