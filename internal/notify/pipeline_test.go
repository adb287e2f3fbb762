package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nelasy5/blockmon/internal/bus"
	"github.com/nelasy5/blockmon/internal/chains"
	"github.com/nelasy5/blockmon/internal/storage"
)

type sentMsg struct {
	id   int
	text string
}

type editMsg struct {
	id   int
	text string
}

type fakeTransport struct {
	mu     sync.Mutex
	nextID int
	sends  []sentMsg
	edits  []editMsg

	failSends int // сколько первых Send завершить ошибкой
	editErr   error
}

func (f *fakeTransport) Send(ctx context.Context, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return 0, errors.New("send failed")
	}
	f.nextID++
	f.sends = append(f.sends, sentMsg{id: f.nextID, text: text})
	return f.nextID, nil
}

func (f *fakeTransport) Edit(ctx context.Context, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editMsg{id: messageID, text: text})
	return nil
}

func (f *fakeTransport) counts() (sends, edits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends), len(f.edits)
}

type fakeNames struct {
	names map[string]string
	err   error
}

func (f *fakeNames) Get(ctx context.Context, address string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[strings.ToLower(address)], nil
}

func (f *fakeNames) Set(ctx context.Context, address, name string) error { return nil }

type fakeRepo struct {
	mu   sync.Mutex
	recs []storage.NotificationRecord
}

func (f *fakeRepo) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeRepo) RecordNotification(ctx context.Context, rec storage.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}
func (f *fakeRepo) ListRecent(ctx context.Context, limit int) ([]storage.NotificationRecord, error) {
	return nil, nil
}

func newTestPipeline(tr Transport, ns *fakeNames, repo storage.Repository) *Pipeline {
	if ns == nil {
		ns = &fakeNames{}
	}
	return NewPipeline(chains.Default(), ns, tr, NewPendingCache(100), repo)
}

func pendingTx() bus.Tx {
	return bus.Tx{
		Hash:     "0x" + strings.Repeat("ab", 32),
		ChainID:  1,
		From:     "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		To:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		ValueWei: "1000000000000000000",
	}
}

func TestPipeline_PendingThenConfirmed(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	a := pendingTx()
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})

	if sends, edits := tr.counts(); sends != 1 || edits != 0 {
		t.Fatalf("after pending: sends=%d edits=%d", sends, edits)
	}
	if _, ok := p.cache.Get(a.Hash); !ok {
		t.Fatal("expected hash in Pending after first delivery")
	}

	b := a
	b.Confirmed = true
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	if sends, edits := tr.counts(); sends != 1 || edits != 1 {
		t.Fatalf("after confirm: sends=%d edits=%d, want exactly one send and one edit", sends, edits)
	}
	if tr.edits[0].id != tr.sends[0].id {
		t.Fatalf("edit targeted message %d, original was %d", tr.edits[0].id, tr.sends[0].id)
	}
	if !strings.Contains(tr.edits[0].text, glyphConfirmed) {
		t.Fatalf("expected confirmed glyph in edited text: %s", tr.edits[0].text)
	}
	if _, ok := p.cache.Get(a.Hash); ok {
		t.Fatal("expected record cleared after edit")
	}
}

func TestPipeline_ThirdEventStartsFreshMessage(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	a := pendingTx()
	b := a
	b.Confirmed = true

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	// запись очищена после edit: третье событие = новое сообщение
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	if sends, edits := tr.counts(); sends != 2 || edits != 1 {
		t.Fatalf("after third event: sends=%d edits=%d", sends, edits)
	}
}

func TestPipeline_SecondPendingAlsoReconciles(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	a := pendingTx()
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})
	// второе событие того же хэша, всё ещё pending: тоже edit + очистка
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})

	if sends, edits := tr.counts(); sends != 1 || edits != 1 {
		t.Fatalf("sends=%d edits=%d", sends, edits)
	}
	if _, ok := p.cache.Get(a.Hash); ok {
		t.Fatal("expected record cleared after any follow-up event")
	}
}

func TestPipeline_ConfirmedWithoutPendingStaysNoRecord(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	b := pendingTx()
	b.Confirmed = true
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	if sends, edits := tr.counts(); sends != 1 || edits != 0 {
		t.Fatalf("sends=%d edits=%d", sends, edits)
	}
	if _, ok := p.cache.Get(b.Hash); ok {
		t.Fatal("confirmed delivery must not create a Pending record")
	}
}

func TestPipeline_UnsupportedChainSkipsOnlyThatTx(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	bad := pendingTx()
	bad.Hash = "0x" + strings.Repeat("cd", 32)
	bad.ChainID = 99999

	good := pendingTx()

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{bad, good}})

	sends, edits := tr.counts()
	if sends != 1 || edits != 0 {
		t.Fatalf("expected only the supported tx delivered: sends=%d edits=%d", sends, edits)
	}
	if _, ok := p.cache.Get(bad.Hash); ok {
		t.Fatal("rejected tx must not touch the cache")
	}
}

func TestPipeline_NameLookupFailureFallsBackToAddress(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, &fakeNames{err: errors.New("redis down")}, nil)

	tx := pendingTx()
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{tx}})

	sends, _ := tr.counts()
	if sends != 1 {
		t.Fatalf("expected delivery despite name failure, sends=%d", sends)
	}
	if !strings.Contains(tr.sends[0].text, truncateMiddle(tx.To, labelRunes)) {
		t.Fatalf("expected truncated address label in: %s", tr.sends[0].text)
	}
}

func TestPipeline_ResolvedFromNameFlipsArrow(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	tx := pendingTx()
	ns := &fakeNames{names: map[string]string{strings.ToLower(tx.From): "Alice"}}
	p := newTestPipeline(tr, ns, nil)

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{tx}})

	if sends, _ := tr.counts(); sends != 1 {
		t.Fatalf("sends=%d", sends)
	}
	txt := tr.sends[0].text
	if !strings.Contains(txt, `[Alice](`) || !strings.Contains(txt, `\-\>`) {
		t.Fatalf("expected Alice -> <to> branch in: %s", txt)
	}
}

func TestPipeline_SendFailureProducesFallback(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{failSends: 1}
	p := newTestPipeline(tr, nil, nil)

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{pendingTx()}})

	sends, _ := tr.counts()
	if sends != 1 {
		t.Fatalf("expected one (fallback) send, got=%d", sends)
	}
	if !strings.Contains(tr.sends[0].text, "could not process incoming tx") {
		t.Fatalf("expected fallback text, got: %s", tr.sends[0].text)
	}
	if _, ok := p.cache.Get(pendingTx().Hash); ok {
		t.Fatal("failed send must not create a Pending record")
	}
}

func TestPipeline_EditFailureKeepsPendingRecord(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	a := pendingTx()
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})

	tr.mu.Lock()
	tr.editErr = errors.New("edit failed")
	tr.mu.Unlock()

	b := a
	b.Confirmed = true
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	if _, ok := p.cache.Get(a.Hash); !ok {
		t.Fatal("expected Pending record retained after edit failure")
	}

	// следующее событие после восстановления транспорта доводит edit
	tr.mu.Lock()
	tr.editErr = nil
	tr.mu.Unlock()

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})
	if _, edits := tr.counts(); edits != 1 {
		t.Fatalf("expected retried edit to succeed, edits=%d", edits)
	}
	if _, ok := p.cache.Get(a.Hash); ok {
		t.Fatal("expected record cleared after successful retry")
	}
}

func TestPipeline_ConcurrentSameHashNeverDoubleSends(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	p := newTestPipeline(tr, nil, nil)

	a := pendingTx()
	// два почти одновременных события одного хэша в одном батче
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a, a}})

	sends, edits := tr.counts()
	if sends != 1 {
		t.Fatalf("expected exactly one send, got=%d", sends)
	}
	if edits != 1 {
		t.Fatalf("expected the second event to reconcile via edit, edits=%d", edits)
	}
}

func TestPipeline_JournalsDeliveries(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	repo := &fakeRepo{}
	p := newTestPipeline(tr, nil, repo)

	a := pendingTx()
	b := a
	b.Confirmed = true

	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{a}})
	p.Ingest(ctx, bus.Batch{Txs: []bus.Tx{b}})

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.recs) != 2 {
		t.Fatalf("expected 2 journal records, got=%d", len(repo.recs))
	}
	if repo.recs[0].Confirmed || !repo.recs[1].Confirmed {
		t.Fatalf("unexpected journal order: %+v", repo.recs)
	}
	if repo.recs[0].MessageID != repo.recs[1].MessageID {
		t.Fatalf("edit must journal the same message id: %+v", repo.recs)
	}
}
