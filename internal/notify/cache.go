package notify

import (
	"container/list"
	"sync"
)

const DefaultPendingMax = 5000

type pendingEntry struct {
	hash      string
	messageID int
}

// PendingCache хранит message id первого «pending»-сообщения по хэшу
// транзакции, пока не придёт следующее событие с тем же хэшем.
// Размер ограничен: при переполнении вытесняется самая старая запись,
// чтобы кеш не рос бесконечно, если подтверждение так и не пришло.
// Учёт порядка ведётся точно (map + list), без отложенной очистки:
// Delete освобождает и слот порядка, иначе он копился бы на каждое
// успешно сведённое уведомление.
type PendingCache struct {
	mu     sync.Mutex
	max    int
	byHash map[string]*list.Element // -> *pendingEntry
	order  *list.List               // oldest first
}

func NewPendingCache(max int) *PendingCache {
	if max <= 0 {
		max = DefaultPendingMax
	}
	return &PendingCache{
		max:    max,
		byHash: make(map[string]*list.Element),
		order:  list.New(),
	}
}

func (c *PendingCache) Get(hash string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byHash[hash]
	if !ok {
		return 0, false
	}
	return e.Value.(*pendingEntry).messageID, true
}

func (c *PendingCache) Put(hash string, messageID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byHash[hash]; ok {
		// место в очереди сохраняется за первой вставкой
		e.Value.(*pendingEntry).messageID = messageID
		return
	}

	c.byHash[hash] = c.order.PushBack(&pendingEntry{hash: hash, messageID: messageID})

	for len(c.byHash) > c.max {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.byHash, oldest.Value.(*pendingEntry).hash)
	}
}

func (c *PendingCache) Delete(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byHash[hash]
	if !ok {
		return
	}
	c.order.Remove(e)
	delete(c.byHash, hash)
}

func (c *PendingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byHash)
}
