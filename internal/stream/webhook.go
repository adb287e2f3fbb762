package stream

import (
	"strconv"
	"strings"
	"time"

	"github.com/nelasy5/blockmon/internal/bus"
)

// Payload — сырое тело вебхука источника событий. chainId приходит
// hex-строкой ("0x1"), value — десятичной строкой в wei.
type Payload struct {
	Confirmed bool   `json:"confirmed"`
	ChainID   string `json:"chainId"`

	Block struct {
		Number    string `json:"number"`
		Timestamp string `json:"timestamp"`
	} `json:"block"`

	Txs         []PayloadTx         `json:"txs"`
	InternalTxs []PayloadInternalTx `json:"txsInternal"`
}

type PayloadTx struct {
	Hash        string `json:"hash"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Value       string `json:"value"`
}

type PayloadInternalTx struct {
	TransactionHash string `json:"transactionHash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
}

// Normalize разворачивает txs и txsInternal в один плоский батч.
// Непарсящийся chainId даёт 0 — такие записи отсеет реестр сетей,
// не роняя остальной батч.
func Normalize(p Payload) bus.Batch {
	chainID := parseChainID(p.ChainID)

	var blockNum *uint64
	if n, err := strconv.ParseUint(p.Block.Number, 10, 64); err == nil {
		blockNum = &n
	}
	var blockTime *time.Time
	if ts, err := strconv.ParseInt(p.Block.Timestamp, 10, 64); err == nil && ts > 0 {
		t := time.Unix(ts, 0).UTC()
		blockTime = &t
	}

	txs := make([]bus.Tx, 0, len(p.Txs)+len(p.InternalTxs))

	for _, tx := range p.Txs {
		txs = append(txs, bus.Tx{
			Hash:      tx.Hash,
			ChainID:   chainID,
			From:      tx.FromAddress,
			To:        tx.ToAddress,
			ValueWei:  orZero(tx.Value),
			Confirmed: p.Confirmed,
			BlockNum:  blockNum,
			BlockTime: blockTime,
		})
	}
	for _, tx := range p.InternalTxs {
		txs = append(txs, bus.Tx{
			Hash:      tx.TransactionHash,
			ChainID:   chainID,
			From:      tx.From,
			To:        tx.To,
			ValueWei:  orZero(tx.Value),
			Confirmed: p.Confirmed,
			BlockNum:  blockNum,
			BlockTime: blockTime,
		})
	}

	return bus.Batch{Txs: txs}
}

func parseChainID(s string) int64 {
	s = strings.TrimSpace(s)
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		id, err := strconv.ParseInt(h, 16, 64)
		if err != nil {
			return 0
		}
		return id
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
