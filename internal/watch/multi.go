package watch

import (
	"context"
	"errors"
)

// Multi рассылает изменения watchlist во все источники сразу, чтобы
// команды оператора действовали и на webhook-стрим, и на живую
// подписку, когда настроены оба.
type Multi struct {
	sources []Source
}

func NewMulti(sources ...Source) *Multi { return &Multi{sources: sources} }

func (m *Multi) AddAddress(ctx context.Context, address string) error {
	var errs []error
	for _, s := range m.sources {
		if err := s.AddAddress(ctx, address); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) RemoveAddress(ctx context.Context, address string) error {
	var errs []error
	for _, s := range m.sources {
		if err := s.RemoveAddress(ctx, address); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListAddresses объединяет списки без дублей, порядок — первый источник
// первым.
func (m *Multi) ListAddresses(ctx context.Context) ([]Address, error) {
	seen := make(map[string]struct{})
	var out []Address

	for _, s := range m.sources {
		addrs, err := s.ListAddresses(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if _, ok := seen[a.Lowercase]; ok {
				continue
			}
			seen[a.Lowercase] = struct{}{}
			out = append(out, a)
		}
	}
	return out, nil
}
