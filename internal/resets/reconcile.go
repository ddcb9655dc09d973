package resets

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/domain"
)

// Preference orders two rows that share a tx id. The row for which
// prefer(a, b) is true survives deduplication.
type Preference func(a, b domain.FlaggedTrade) bool

// PreferStrategy keeps the earliest row, then the reset row, then the
// strategy-sourced row.
func PreferStrategy(a, b domain.FlaggedTrade) bool {
	if !a.Trade.Timestamp.Equal(b.Trade.Timestamp) {
		return a.Trade.Timestamp.Before(b.Trade.Timestamp)
	}
	if a.Reset.IsReset() != b.Reset.IsReset() {
		return a.Reset.IsReset()
	}
	return a.Source == domain.SourceStrategy && b.Source != domain.SourceStrategy
}

// Reconciliation is the merged strategy/reference timeline.
type Reconciliation struct {
	Timeline          []domain.FlaggedTrade // ascending by timestamp, one row per tx id
	Intervals         *IntervalSeries       // interval counts over Timeline
	StrategyResets    int                   // strategy reset rows entering the merge
	ReferenceTrades   int                   // reference rows entering the merge
	DuplicatesDropped int                   // rows removed by tx id deduplication

	// TimestampCoercion names the side converted from epoch to calendar
	// form, empty when both sides already agreed.
	TimestampCoercion domain.TradeSource
	// TxIDCoercion reports whether tx ids were rewritten to canonical hex.
	TxIDCoercion bool
}

// Reconciler merges strategy reset trades with reference trades.
type Reconciler struct {
	prefer Preference
	logger *zap.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithPreference sets the duplicate preference.
func WithPreference(p Preference) ReconcilerOption {
	return func(r *Reconciler) {
		if p != nil {
			r.prefer = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler creates a Reconciler that prefers strategy rows on duplicates.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		prefer: PreferStrategy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile merges the reset rows of strategy with every reference trade,
// keeps one row per tx id, marks reference-only rows as non-resets and counts
// intervals over the merged timeline.
//
// Non-reset strategy rows are dropped: they either duplicate reference trades
// or carry no reset checkpoint. A merged timeline without resets is returned
// with Intervals.Found() == false.
func (r *Reconciler) Reconcile(strategy []domain.FlaggedTrade, reference []*domain.TradeRecord) (*Reconciliation, error) {
	// 1. filter
	var resetRows []domain.FlaggedTrade
	for i, f := range strategy {
		if f.Trade == nil {
			return nil, fieldError(i, "strategy trade", ErrInvalidInput)
		}
		if !f.Reset.Known() {
			return nil, fieldError(i, "is_reset", ErrMissingColumn)
		}
		if f.Reset.IsReset() {
			resetRows = append(resetRows, domain.FlaggedTrade{
				Trade:  f.Trade.Clone(),
				Reset:  domain.ResetTrue,
				Source: domain.SourceStrategy,
			})
		}
	}

	refRows := make([]domain.FlaggedTrade, len(reference))
	for i, t := range reference {
		if t == nil {
			return nil, fieldError(i, "reference trade", ErrInvalidInput)
		}
		refRows[i] = domain.FlaggedTrade{
			Trade:  t.Clone(),
			Reset:  domain.ResetUnknown,
			Source: domain.SourceReference,
		}
	}

	rec := &Reconciliation{
		StrategyResets:  len(resetRows),
		ReferenceTrades: len(refRows),
	}

	// 2. normalize
	coerced, err := normalizeTimestamps(resetRows, refRows)
	if err != nil {
		return nil, err
	}
	rec.TimestampCoercion = coerced

	rewritten, err := normalizeTxIDs(resetRows, refRows)
	if err != nil {
		return nil, err
	}
	rec.TxIDCoercion = rewritten

	// 3. union
	all := make([]domain.FlaggedTrade, 0, len(resetRows)+len(refRows))
	all = append(all, resetRows...)
	all = append(all, refRows...)

	// 4. dedup
	merged := r.dedup(all)
	rec.DuplicatesDropped = len(all) - len(merged)
	if err := checkUniqueTxIDs(merged); err != nil {
		return nil, err
	}

	// 5. fill
	for i := range merged {
		if !merged[i].Reset.Known() {
			merged[i].Reset = domain.ResetFalse
		}
	}

	// 6. re-sort and count
	sortFlaggedByTime(merged)
	rec.Timeline = merged

	series, err := CountIntervals(merged)
	if err != nil {
		return nil, err
	}
	rec.Intervals = series

	r.logger.Debug("reconciled timeline",
		zap.Int("strategy_resets", rec.StrategyResets),
		zap.Int("reference_trades", rec.ReferenceTrades),
		zap.Int("duplicates_dropped", rec.DuplicatesDropped),
		zap.Int("timeline_rows", len(merged)),
		zap.Bool("resets_found", series.Found()),
	)

	return rec, nil
}

// dedup keeps the preferred row of every tx id. Rows are sorted by
// (tx id, preference) and the first row of each group survives.
func (r *Reconciler) dedup(rows []domain.FlaggedTrade) []domain.FlaggedTrade {
	sorted := make([]domain.FlaggedTrade, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Trade.TxID != sorted[j].Trade.TxID {
			return sorted[i].Trade.TxID < sorted[j].Trade.TxID
		}
		return r.prefer(sorted[i], sorted[j])
	})

	out := make([]domain.FlaggedTrade, 0, len(sorted))
	for i, row := range sorted {
		if i > 0 && row.Trade.TxID == sorted[i-1].Trade.TxID {
			continue
		}
		out = append(out, row)
	}
	return out
}

func checkUniqueTxIDs(rows []domain.FlaggedTrade) error {
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		if _, ok := seen[row.Trade.TxID]; ok {
			return fieldError(i, "tx_id "+row.Trade.TxID, ErrReconciliationInvariant)
		}
		seen[row.Trade.TxID] = struct{}{}
	}
	return nil
}

// sideTimeKind returns the single timestamp representation of a side.
// An empty side reports TimeKindUnknown.
func sideTimeKind(rows []domain.FlaggedTrade, field string) (domain.TimeKind, error) {
	kind := domain.TimeKindUnknown
	for i, row := range rows {
		if row.Trade.Timestamp.IsZero() {
			return 0, fieldError(i, field, ErrMissingField)
		}
		if kind == domain.TimeKindUnknown {
			kind = row.Trade.Timestamp.Kind
		} else if row.Trade.Timestamp.Kind != kind {
			return 0, fieldError(i, field, ErrTypeMismatch)
		}
	}
	return kind, nil
}

// normalizeTimestamps brings both sides to one representation by converting
// the epoch side to calendar form. Returns the converted side.
func normalizeTimestamps(strategy, reference []domain.FlaggedTrade) (domain.TradeSource, error) {
	sk, err := sideTimeKind(strategy, "strategy timestamp")
	if err != nil {
		return "", err
	}
	rk, err := sideTimeKind(reference, "reference timestamp")
	if err != nil {
		return "", err
	}
	if sk == rk || sk == domain.TimeKindUnknown || rk == domain.TimeKindUnknown {
		return "", nil
	}

	var side []domain.FlaggedTrade
	var source domain.TradeSource
	switch {
	case sk == domain.TimeKindEpoch && rk == domain.TimeKindCalendar:
		side, source = strategy, domain.SourceStrategy
	case rk == domain.TimeKindEpoch && sk == domain.TimeKindCalendar:
		side, source = reference, domain.SourceReference
	default:
		return "", fieldError(0, "timestamp "+sk.String()+"/"+rk.String(), ErrTypeMismatch)
	}
	for i := range side {
		side[i].Trade.Timestamp = side[i].Trade.Timestamp.ToCalendar()
	}
	return source, nil
}

// sideTxIDKind returns the single tx id encoding of a side.
// A side mixing encodings is reported as opaque with ok == false.
func sideTxIDKind(rows []domain.FlaggedTrade, field string) (kind domain.TxIDKind, ok bool, err error) {
	ok = true
	for i, row := range rows {
		id := strings.TrimSpace(row.Trade.TxID)
		if id == "" {
			return 0, false, fieldError(i, field, ErrMissingField)
		}
		k := domain.ClassifyTxID(id)
		if i == 0 {
			kind = k
		} else if k != kind {
			ok = false
		}
	}
	return kind, ok, nil
}

// normalizeTxIDs makes tx ids of both sides comparable. Hex ids are
// lower-cased; when the sides use different recognized encodings all ids are
// rewritten to canonical hex. Reports whether ids were rewritten.
func normalizeTxIDs(strategy, reference []domain.FlaggedTrade) (bool, error) {
	sk, sok, err := sideTxIDKind(strategy, "strategy tx_id")
	if err != nil {
		return false, err
	}
	rk, rok, err := sideTxIDKind(reference, "reference tx_id")
	if err != nil {
		return false, err
	}

	sameKind := sok && rok && (sk == rk || len(strategy) == 0 || len(reference) == 0)
	if sameKind {
		for _, side := range [][]domain.FlaggedTrade{strategy, reference} {
			for i := range side {
				id := strings.TrimSpace(side[i].Trade.TxID)
				if domain.ClassifyTxID(id) == domain.TxIDHex {
					id, _ = domain.CanonicalTxID(id)
				}
				side[i].Trade.TxID = id
			}
		}
		return false, nil
	}

	for _, side := range [][]domain.FlaggedTrade{strategy, reference} {
		for i := range side {
			id, err := domain.CanonicalTxID(side[i].Trade.TxID)
			if err != nil {
				return false, fieldError(i, "tx_id "+sk.String()+"/"+rk.String(), ErrTypeMismatch)
			}
			side[i].Trade.TxID = id
		}
	}
	return true, nil
}
