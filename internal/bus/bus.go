package bus

import "time"

// Tx — нормализованная транзакция, общая для всех источников событий.
type Tx struct {
	Hash    string
	ChainID int64

	// From/To пустые, если сторона отсутствует (contract creation и т.п.)
	From string
	To   string

	ValueWei  string // big.Int как строка, в минимальных единицах сети
	Confirmed bool

	BlockNum  *uint64
	BlockTime *time.Time
}

// Batch is one delivery from an event source: every tx is processed
// independently, a bad record never fails the whole batch.
type Batch struct {
	Txs []Tx
}
