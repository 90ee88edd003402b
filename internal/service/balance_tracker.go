package service

import (
	"sync"

	"botpanel/backend/internal/format"
	"botpanel/backend/internal/util"
	"botpanel/backend/internal/view"
)

// Texts shown in the balance variation slot
const (
	VariationNoData    = "Sin variaciones registradas"
	VariationWaiting   = "Esperando histórico"
	VariationUnchanged = "Sin variaciones"
)

// BalanceTracker reports the change of the balance since the last
// distinguishable observation
type BalanceTracker struct {
	mu       sync.Mutex
	baseline *float64
}

// NewBalanceTracker creates a tracker with no baseline
func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{}
}

// Observe renders the variation of balance against the baseline. The baseline
// only moves when the variation is large enough to be shown.
func (t *BalanceTracker) Observe(w *view.Writer, balance *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if balance == nil {
		w.SetSlot(view.SlotBalanceVariance, VariationNoData)
		return
	}

	if t.baseline == nil {
		b := *balance
		t.baseline = &b
		w.SetSlot(view.SlotBalanceVariance, VariationWaiting)
		clearVariationClasses(w)
		return
	}

	delta := *balance - *t.baseline
	if util.NearlyZero(delta) {
		w.SetSlot(view.SlotBalanceVariance, VariationUnchanged)
		clearVariationClasses(w)
		return
	}

	pct := util.PercentChange(delta, *t.baseline)
	w.SetSlot(view.SlotBalanceVariance, format.SignedCurrency(delta)+" ("+format.Decimal2(&pct)+"%)")
	w.SetClasses(view.SlotBalanceVariance, map[string]bool{
		view.ClassPositive: delta > 0,
		view.ClassNegative: delta < 0,
	})
	b := *balance
	t.baseline = &b
}

// Baseline returns the current baseline, nil before the first observation
func (t *BalanceTracker) Baseline() *float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.baseline == nil {
		return nil
	}
	b := *t.baseline
	return &b
}

func clearVariationClasses(w *view.Writer) {
	w.SetClasses(view.SlotBalanceVariance, map[string]bool{
		view.ClassPositive: false,
		view.ClassNegative: false,
	})
}
