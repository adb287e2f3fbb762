package watch

import "context"

// Address хранится в двух видах: lowercase — ключ, checksum — для показа.
type Address struct {
	Lowercase string
	Checksum  string
}

// Source — список отслеживаемых адресов у источника событий
// (удалённый stream API или локальный набор живой подписки).
type Source interface {
	AddAddress(ctx context.Context, address string) error
	RemoveAddress(ctx context.Context, address string) error
	ListAddresses(ctx context.Context) ([]Address, error)
}
