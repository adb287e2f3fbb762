package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nelasy5/blockmon/internal/bus"
	"github.com/nelasy5/blockmon/internal/chains"
	"github.com/nelasy5/blockmon/internal/names"
	"github.com/nelasy5/blockmon/internal/storage"
)

const fallbackText = "could not process incoming tx, contact dev for more details"

// Transport — канал доставки: send возвращает message id, edit правит
// ранее отправленное сообщение.
type Transport interface {
	Send(ctx context.Context, text string) (int, error)
	Edit(ctx context.Context, messageID int, text string) error
}

type Pipeline struct {
	reg   *chains.Registry
	names names.Store
	tr    Transport
	cache *PendingCache

	locks keyedMutex

	repo storage.Repository // nil = без журнала
}

func NewPipeline(reg *chains.Registry, nameStore names.Store, tr Transport, cache *PendingCache, repo storage.Repository) *Pipeline {
	if cache == nil {
		cache = NewPendingCache(0)
	}
	return &Pipeline{
		reg:   reg,
		names: nameStore,
		tr:    tr,
		cache: cache,
		repo:  repo,
	}
}

// Run consumes batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, events <-chan bus.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-events:
			p.Ingest(ctx, b)
		}
	}
}

// Ingest processes every tx of the batch. Never returns an error: each tx
// fails (and is reported) on its own.
func (p *Pipeline) Ingest(ctx context.Context, batch bus.Batch) {
	var wg sync.WaitGroup
	for _, tx := range batch.Txs {
		wg.Add(1)
		go func(tx bus.Tx) {
			defer wg.Done()
			p.handleTx(ctx, tx)
		}(tx)
	}
	wg.Wait()
}

func (p *Pipeline) handleTx(ctx context.Context, tx bus.Tx) {
	// Все события одного хэша обрабатываются строго по очереди, включая
	// send/edit: иначе два "первых" события могли бы отправить по сообщению.
	unlock := p.locks.lock(tx.Hash)
	defer unlock()

	ch, ok := p.reg.Lookup(tx.ChainID)
	if !ok {
		log.Printf("[pipeline] skip tx %s: unsupported chain id %d", tx.Hash, tx.ChainID)
		return
	}

	fromName := p.resolveName(ctx, tx.From)
	toName := p.resolveName(ctx, tx.To)

	text, err := Render(tx, ch, fromName, toName)
	if err != nil {
		log.Printf("[pipeline] render tx %s: %v", tx.Hash, err)
		p.sendFallback(ctx)
		return
	}

	if msgID, pending := p.cache.Get(tx.Hash); pending {
		if err := p.tr.Edit(ctx, msgID, text); err != nil {
			// запись остаётся Pending: следующее событие повторит edit,
			// иначе первое сообщение навсегда зависло бы жёлтым
			log.Printf("[pipeline] edit message %d for tx %s: %v", msgID, tx.Hash, err)
			p.sendFallback(ctx)
			return
		}
		p.cache.Delete(tx.Hash)
		p.journal(ctx, tx, msgID)
		return
	}

	msgID, err := p.tr.Send(ctx, text)
	if err != nil {
		log.Printf("[pipeline] send tx %s: %v", tx.Hash, err)
		p.sendFallback(ctx)
		return
	}
	if !tx.Confirmed {
		p.cache.Put(tx.Hash, msgID)
	}
	p.journal(ctx, tx, msgID)
}

// resolveName: справочник имён — best effort, ошибка не блокирует доставку.
func (p *Pipeline) resolveName(ctx context.Context, addr string) string {
	if addr == "" || p.names == nil {
		return ""
	}
	name, err := p.names.Get(ctx, addr)
	if err != nil {
		log.Printf("[pipeline] name lookup %s: %v", addr, err)
		return ""
	}
	return name
}

func (p *Pipeline) sendFallback(ctx context.Context) {
	if _, err := p.tr.Send(ctx, escapeMarkdownV2(fallbackText)); err != nil {
		log.Printf("[pipeline] fallback send: %v", err)
	}
}

func (p *Pipeline) journal(ctx context.Context, tx bus.Tx, messageID int) {
	if p.repo == nil {
		return
	}

	var to *string
	if tx.To != "" {
		t := tx.To
		to = &t
	}

	err := p.repo.RecordNotification(ctx, storage.NotificationRecord{
		Hash:        tx.Hash,
		ChainID:     tx.ChainID,
		FromAddr:    tx.From,
		ToAddr:      to,
		ValueWei:    tx.ValueWei,
		Confirmed:   tx.Confirmed,
		MessageID:   messageID,
		BlockNum:    tx.BlockNum,
		BlockTime:   tx.BlockTime,
		DeliveredAt: time.Now().UTC(),
	})
	if err != nil {
		// не возвращаем — уведомление уже доставлено, журнал вторичен
		log.Printf("[pipeline] journal tx %s: %v", tx.Hash, err)
	}
}

// keyedMutex сериализует обработку по ключу (хэшу транзакции).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e := k.locks[key]
	if e == nil {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
