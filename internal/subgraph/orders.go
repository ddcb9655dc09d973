package subgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"

	"strategy-reset-lab/internal/domain"
)

const orderQuery = `
query orderInfo($orderHash: ID!) {
  orders(where: {orderHash: $orderHash}) {
    id
    orderHash
    active
    timestampAdded
    trades(first: 1, orderBy: timestamp, orderDirection: desc) {
      inputVaultBalanceChange { vault { token { symbol } } }
      outputVaultBalanceChange { vault { token { symbol } } }
    }
  }
}`

type orderData struct {
	Orders []struct {
		ID             string      `json:"id"`
		OrderHash      string      `json:"orderHash"`
		Active         bool        `json:"active"`
		TimestampAdded string      `json:"timestampAdded"`
		Trades         []tradeJSON `json:"trades"`
	} `json:"orders"`
}

// OrderInfo returns the details of an order. Results are cached per order
// hash for the configured TTL. Returns ErrOrderNotFound for unknown orders.
func (c *Client) OrderInfo(ctx context.Context, orderHash string) (*domain.OrderInfo, error) {
	key := strings.ToLower(orderHash)
	if cached, ok := c.orders.Get(key); ok {
		c.recordCache(true)
		info := *cached.(*domain.OrderInfo)
		return &info, nil
	}
	c.recordCache(false)

	var data orderData
	if err := c.query(ctx, "order", orderQuery, map[string]any{"orderHash": orderHash}, &data); err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	if len(data.Orders) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderHash)
	}

	o := data.Orders[0]
	info := &domain.OrderInfo{
		ID:        o.ID,
		OrderHash: o.OrderHash,
		Active:    o.Active,
	}
	if o.TimestampAdded != "" {
		ts, err := domain.ParseEpochSeconds(o.TimestampAdded)
		if err != nil {
			return nil, fmt.Errorf("timestampAdded: %w", err)
		}
		info.TimestampAdded = ts
	}
	if len(o.Trades) > 0 {
		info.LastInputToken = o.Trades[0].InputVaultBalanceChange.Vault.Token.Symbol
		info.LastOutputToken = o.Trades[0].OutputVaultBalanceChange.Vault.Token.Symbol
	}

	c.orders.Set(key, info, cache.DefaultExpiration)
	out := *info
	return &out, nil
}

func (c *Client) recordCache(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}
