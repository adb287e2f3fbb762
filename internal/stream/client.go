package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nelasy5/blockmon/internal/watch"

	"github.com/ethereum/go-ethereum/common"
)

const DefaultAPIBase = "https://api.moralis-streams.com"

// Client — REST-клиент stream API: управление списком отслеживаемых
// адресов одного стрима. Авторизация через X-API-Key.
type Client struct {
	httpc    *http.Client
	base     string
	apiKey   string
	streamID string
}

func NewClient(base, apiKey, streamID string) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	return &Client{
		httpc:    &http.Client{Timeout: 10 * time.Second},
		base:     strings.TrimSuffix(base, "/"),
		apiKey:   apiKey,
		streamID: streamID,
	}
}

func (c *Client) addressPath() string {
	return c.base + "/streams/evm/" + c.streamID + "/address"
}

func (c *Client) AddAddress(ctx context.Context, address string) error {
	return c.do(ctx, http.MethodPost, c.addressPath(), map[string]string{"address": address}, nil)
}

func (c *Client) RemoveAddress(ctx context.Context, address string) error {
	return c.do(ctx, http.MethodDelete, c.addressPath(), map[string]string{"address": address}, nil)
}

type addressPage struct {
	Result []struct {
		Address string `json:"address"`
	} `json:"result"`
	Cursor string `json:"cursor"`
}

func (c *Client) ListAddresses(ctx context.Context) ([]watch.Address, error) {
	var out []watch.Address
	cursor := ""

	for {
		q := url.Values{"limit": {"100"}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page addressPage
		if err := c.do(ctx, http.MethodGet, c.addressPath()+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}

		for _, r := range page.Result {
			if r.Address == "" {
				continue
			}
			out = append(out, watch.Address{
				Lowercase: strings.ToLower(r.Address),
				Checksum:  common.HexToAddress(r.Address).Hex(),
			})
		}

		if page.Cursor == "" {
			return out, nil
		}
		cursor = page.Cursor
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("stream api %s %s: status %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
