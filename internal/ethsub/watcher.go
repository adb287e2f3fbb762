package ethsub

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/nelasy5/blockmon/internal/bus"
	"github.com/nelasy5/blockmon/internal/watch"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Config struct {
	Workers     int
	TasksBuffer int
}

type txTask struct {
	tx        *types.Transaction
	blockNum  uint64
	blockTime uint64
}

// Watcher — источник событий поверх живой подписки на новые блоки.
// Транзакции, задевающие отслеживаемые адреса, уходят в общий канал
// уже подтверждёнными (pending-поток здесь недоступен).
type Watcher struct {
	client  *ethclient.Client
	chainID *big.Int

	set    *watch.Set
	events chan<- bus.Batch

	cfg Config

	tasks chan txTask
	wg    sync.WaitGroup
}

func NewWatcher(
	client *ethclient.Client,
	chainID *big.Int,
	set *watch.Set,
	events chan<- bus.Batch,
	cfg Config,
) *Watcher {

	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}

	if cfg.TasksBuffer <= 0 {
		cfg.TasksBuffer = 1024
	}

	return &Watcher{
		client:  client,
		chainID: chainID,
		set:     set,
		events:  events,
		cfg:     cfg,
		tasks:   make(chan txTask, cfg.TasksBuffer),
	}
}

// Watcher сам ведёт свой watchlist: реализует watch.Source.

func (w *Watcher) AddAddress(ctx context.Context, address string) error {
	w.set.Add(address)
	return nil
}

func (w *Watcher) RemoveAddress(ctx context.Context, address string) error {
	w.set.Remove(address)
	return nil
}

func (w *Watcher) ListAddresses(ctx context.Context) ([]watch.Address, error) {
	return w.set.List(), nil
}

func (w *Watcher) Start(ctx context.Context) error {
	w.startWorkers(ctx)
	defer w.stopWorkers()

	headers := make(chan *types.Header, 128)

	sub, err := w.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("SubscribeNewHead: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)

		case h := <-headers:
			if h == nil {
				continue
			}

			block, err := w.client.BlockByHash(ctx, h.Hash())
			if err != nil {
				log.Printf("[ethsub] block fetch error: %v", err)
				continue
			}

			for _, tx := range block.Transactions() {
				task := txTask{
					tx:        tx,
					blockNum:  block.NumberU64(),
					blockTime: block.Time(),
				}

				select {
				case w.tasks <- task:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (w *Watcher) startWorkers(ctx context.Context) {
	signer := types.LatestSignerForChainID(w.chainID)

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return

				case task, ok := <-w.tasks:
					if !ok {
						return
					}
					w.handleTask(ctx, signer, task)
				}
			}
		}()
	}
}

func (w *Watcher) stopWorkers() {
	close(w.tasks)
	w.wg.Wait()
}

func (w *Watcher) handleTask(ctx context.Context, signer types.Signer, task txTask) {
	tx := task.tx

	from, err := types.Sender(signer, tx)
	if err != nil {
		// legacy edge cases, пропускаем молча
		return
	}

	to := tx.To()

	watched := w.set.Has(from.Hex())
	if !watched && to != nil {
		watched = w.set.Has(to.Hex())
	}
	if !watched {
		return
	}

	val := tx.Value()
	if val == nil {
		val = big.NewInt(0)
	}

	toStr := ""
	if to != nil {
		toStr = to.Hex()
	}

	bt := time.Unix(int64(task.blockTime), 0).UTC()
	blockNum := task.blockNum

	out := bus.Tx{
		Hash:      tx.Hash().Hex(),
		ChainID:   w.chainID.Int64(),
		From:      from.Hex(),
		To:        toStr,
		ValueWei:  val.String(),
		Confirmed: true,
		BlockNum:  &blockNum,
		BlockTime: &bt,
	}

	select {
	case w.events <- bus.Batch{Txs: []bus.Tx{out}}:
	case <-ctx.Done():
	}
}
