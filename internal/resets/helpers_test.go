package resets

import (
	"strategy-reset-lab/internal/domain"
)

func trade(tx string, sec int64, in, out string) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:     tx + "-trade",
		OrderHash:   "0xorder",
		TxID:        tx,
		Timestamp:   domain.EpochSeconds(sec),
		InputToken:  in,
		OutputToken: out,
	}
}

func flagged(tx string, sec int64, in, out string, isReset bool) domain.FlaggedTrade {
	return domain.FlaggedTrade{
		Trade:  trade(tx, sec, in, out),
		Reset:  domain.ResetFlagOf(isReset),
		Source: domain.SourceStrategy,
	}
}

func resetFlags(rows []domain.FlaggedTrade) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		out[i] = r.Reset.IsReset()
	}
	return out
}

func txIDs(rows []domain.FlaggedTrade) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Trade.TxID
	}
	return out
}
