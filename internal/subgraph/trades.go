package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategy-reset-lab/internal/domain"
)

// ErrInvalidRange is returned when the end date precedes the start date.
var ErrInvalidRange = errors.New("end date before start date")

const tradesQuery = `
query strategyTrades(
  $orderHash: ID!,
  $startTs: BigInt!,
  $pageSize: Int!,
  $lastTs: BigInt
) {
  orders(where: {orderHash: $orderHash}) {
    orderHash
    trades(
      first: $pageSize,
      orderBy: timestamp,
      orderDirection: desc,
      where: { timestamp_gte: $startTs, timestamp_lte: $lastTs }
    ) {
      id
      timestamp
      inputVaultBalanceChange {
        vault { token { symbol decimals } }
        amount
        oldVaultBalance
        newVaultBalance
      }
      outputVaultBalanceChange {
        vault { token { symbol decimals } }
        amount
        oldVaultBalance
        newVaultBalance
      }
      tradeEvent {
        transaction { id blockNumber }
      }
    }
  }
}`

type tradesData struct {
	Orders []struct {
		OrderHash string      `json:"orderHash"`
		Trades    []tradeJSON `json:"trades"`
	} `json:"orders"`
}

type tradeJSON struct {
	ID                       string          `json:"id"`
	Timestamp                json.Number     `json:"timestamp"`
	InputVaultBalanceChange  vaultChangeJSON `json:"inputVaultBalanceChange"`
	OutputVaultBalanceChange vaultChangeJSON `json:"outputVaultBalanceChange"`
	TradeEvent               struct {
		Transaction struct {
			ID          string      `json:"id"`
			BlockNumber json.Number `json:"blockNumber"`
		} `json:"transaction"`
	} `json:"tradeEvent"`
}

type vaultChangeJSON struct {
	Vault struct {
		Token struct {
			Symbol   string      `json:"symbol"`
			Decimals json.Number `json:"decimals"`
		} `json:"token"`
	} `json:"vault"`
	Amount          decimal.Decimal `json:"amount"`
	OldVaultBalance decimal.Decimal `json:"oldVaultBalance"`
	NewVaultBalance decimal.Decimal `json:"newVaultBalance"`
}

// DayRange converts an inclusive range of calendar days into unix seconds
// [start 00:00 UTC, end+1 day 00:00 UTC).
func DayRange(start, end time.Time) (int64, int64, error) {
	from := truncateDay(start)
	to := truncateDay(end)
	if to.Before(from) {
		return 0, 0, fmt.Errorf("%w: %s > %s", ErrInvalidRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return from.Unix(), to.AddDate(0, 0, 1).Unix(), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FetchTrades returns every trade of an order executed on the calendar days
// start through end (inclusive, UTC), in ascending timestamp order.
//
// Pages are requested newest first; each page is bounded above, inclusively,
// by the oldest timestamp of the previous page, so trades sharing that second
// are requested again and deduplicated by trade id. Equal timestamps are
// ordered by trade id. Returns ErrOrderNotFound if the subgraph has no order
// with the hash.
func (c *Client) FetchTrades(ctx context.Context, orderHash string, start, end time.Time) ([]*domain.TradeRecord, error) {
	startTs, endTs, err := DayRange(start, end)
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetching trades",
		zap.String("order_hash", orderHash),
		zap.Int64("start_ts", startTs),
		zap.Int64("end_ts", endTs),
	)

	var trades []*domain.TradeRecord
	seen := make(map[string]struct{})
	lastTs := endTs - 1
	for page := 0; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vars := map[string]any{
			"orderHash": orderHash,
			"startTs":   startTs,
			"pageSize":  c.pageSize,
			"lastTs":    lastTs,
		}
		var data tradesData
		if err := c.query(ctx, "trades", tradesQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("fetch trades page %d: %w", page, err)
		}
		if len(data.Orders) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderHash)
		}

		order := data.Orders[0]
		batch := order.Trades
		if c.metrics != nil {
			c.metrics.RecordPage(len(batch))
		}
		c.logger.Debug("received trades page",
			zap.Int("page", page),
			zap.Int("trades", len(batch)),
			zap.Int64("last_ts", lastTs),
		)
		if len(batch) == 0 {
			break
		}

		added := 0
		oldest := lastTs
		for i, raw := range batch {
			t, err := toTradeRecord(order.OrderHash, raw)
			if err != nil {
				return nil, fmt.Errorf("page %d trade %d: %w", page, i, err)
			}
			if t.Timestamp.Epoch < oldest {
				oldest = t.Timestamp.Epoch
			}
			if _, dup := seen[t.TradeID]; dup {
				continue
			}
			seen[t.TradeID] = struct{}{}
			trades = append(trades, t)
			added++
		}
		if len(batch) < c.pageSize {
			break
		}
		if added == 0 {
			// The whole page was one second already fetched; move below it.
			c.logger.Warn("page size reached within one second, remaining trades of that second are skipped",
				zap.String("order_hash", orderHash),
				zap.Int64("timestamp", oldest),
			)
			oldest--
		}
		if oldest < startTs {
			break
		}
		lastTs = oldest
	}

	domain.SortTrades(trades)

	c.logger.Info("fetched trades",
		zap.String("order_hash", orderHash),
		zap.Int("trades", len(trades)),
	)
	return trades, nil
}

func toTradeRecord(orderHash string, raw tradeJSON) (*domain.TradeRecord, error) {
	ts, err := parseInt(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	block, err := parseInt(raw.TradeEvent.Transaction.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	inDec, err := parseInt(raw.InputVaultBalanceChange.Vault.Token.Decimals)
	if err != nil {
		return nil, fmt.Errorf("input decimals: %w", err)
	}
	outDec, err := parseInt(raw.OutputVaultBalanceChange.Vault.Token.Decimals)
	if err != nil {
		return nil, fmt.Errorf("output decimals: %w", err)
	}

	in := raw.InputVaultBalanceChange
	out := raw.OutputVaultBalanceChange
	return &domain.TradeRecord{
		TradeID:     raw.ID,
		OrderHash:   strings.ToLower(orderHash),
		TxID:        raw.TradeEvent.Transaction.ID,
		BlockNumber: block,
		Timestamp:   domain.EpochSeconds(ts),

		InputToken:      in.Vault.Token.Symbol,
		InputDecimals:   int32(inDec),
		InputAmount:     in.Amount,
		InputOldBalance: in.OldVaultBalance,
		InputNewBalance: in.NewVaultBalance,

		OutputToken:      out.Vault.Token.Symbol,
		OutputDecimals:   int32(outDec),
		OutputAmount:     out.Amount,
		OutputOldBalance: out.OldVaultBalance,
		OutputNewBalance: out.NewVaultBalance,
	}, nil
}

// parseInt parses a BigInt field. Absent values are zero.
func parseInt(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Int64()
}
