package watch

import (
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Set — потокобезопасный локальный список адресов.
type Set struct {
	mu    sync.RWMutex
	addrs map[string]struct{} // lowercase
}

func NewSet() *Set {
	return &Set{addrs: make(map[string]struct{})}
}

func (s *Set) Add(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addrs[strings.ToLower(address)] = struct{}{}
}

func (s *Set) Remove(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.addrs, strings.ToLower(address))
}

func (s *Set) Has(address string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.addrs[strings.ToLower(address)]
	return ok
}

// List возвращает копию, отсортированную для стабильного вывода.
func (s *Set) List() []Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Address, 0, len(s.addrs))
	for a := range s.addrs {
		out = append(out, Address{
			Lowercase: a,
			Checksum:  common.HexToAddress(a).Hex(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lowercase < out[j].Lowercase })
	return out
}
