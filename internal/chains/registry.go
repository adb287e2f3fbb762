package chains

import "strings"

// Chain описывает одну сеть: валюта, explorer и масштаб value.
type Chain struct {
	NativeCurrency string
	Explorer       string // base URL, с завершающим "/"
	Decimals       int32  // 18 для EVM, 9 для lamports-подобных
}

func (c Chain) AddressURL(addr string) string {
	return c.Explorer + "address/" + addr
}

func (c Chain) TxURL(hash string) string {
	return c.Explorer + "tx/" + hash
}

// Registry is a static chain table, immutable after construction and safe
// for concurrent reads.
type Registry struct {
	byID map[int64]Chain
}

func NewRegistry(table map[int64]Chain) *Registry {
	byID := make(map[int64]Chain, len(table))
	for id, c := range table {
		if !strings.HasSuffix(c.Explorer, "/") {
			c.Explorer += "/"
		}
		byID[id] = c
	}
	return &Registry{byID: byID}
}

func (r *Registry) Lookup(chainID int64) (Chain, bool) {
	c, ok := r.byID[chainID]
	return c, ok
}

// Default возвращает таблицу поддерживаемых EVM-сетей.
func Default() *Registry {
	return NewRegistry(map[int64]Chain{
		1:     {NativeCurrency: "ETH", Explorer: "https://etherscan.io/", Decimals: 18},
		10:    {NativeCurrency: "ETH", Explorer: "https://optimistic.etherscan.io/", Decimals: 18},
		56:    {NativeCurrency: "BNB", Explorer: "https://bscscan.com/", Decimals: 18},
		137:   {NativeCurrency: "MATIC", Explorer: "https://polygonscan.com/", Decimals: 18},
		250:   {NativeCurrency: "FTM", Explorer: "https://ftmscan.com/", Decimals: 18},
		8453:  {NativeCurrency: "ETH", Explorer: "https://basescan.org/", Decimals: 18},
		42161: {NativeCurrency: "ETH", Explorer: "https://arbiscan.io/", Decimals: 18},
		43114: {NativeCurrency: "AVAX", Explorer: "https://snowtrace.io/", Decimals: 18},
	})
}
