package service

import (
	"time"

	"botpanel/backend/internal/format"
	"botpanel/backend/internal/model"
	"botpanel/backend/internal/view"
)

// Empty-table messages
const (
	EmptyOperations           = "Sin operaciones registradas"
	EmptySimulationSummary    = "Sin datos de simulación"
	EmptySimulationOperations = "Sin operaciones simuladas"
)

// Batch is one complete pull of every dashboard resource
type Batch struct {
	Status     *model.BotStatus
	Winrate    *model.WinrateSummary
	Statistics *model.CallPutStatistics
	Timer      *model.TimerState
	Operations []model.Operation
	Simulation *model.SimulationResults
}

// Reconciler turns server entities into slot writes. Both the pull path and
// the push path go through it, so a value renders the same whichever path
// delivered it.
type Reconciler struct {
	renderer *view.Renderer
	timer    *TimerMachine
	balance  *BalanceTracker
	now      func() time.Time
}

// NewReconciler wires the reconciliation components around renderer
func NewReconciler(renderer *view.Renderer, timer *TimerMachine, balance *BalanceTracker) *Reconciler {
	return &Reconciler{
		renderer: renderer,
		timer:    timer,
		balance:  balance,
		now:      time.Now,
	}
}

// ApplyBatch applies a full refresh in one view update and stamps it
func (r *Reconciler) ApplyBatch(b Batch) {
	r.renderer.Update(func(w *view.Writer) {
		if b.Status != nil {
			r.ApplyBotStatus(w, *b.Status)
		}
		if b.Winrate != nil {
			r.ApplyWinrate(w, *b.Winrate)
		}
		if b.Statistics != nil {
			r.ApplyStatistics(w, *b.Statistics)
		}
		if b.Timer != nil {
			r.timer.Apply(w, *b.Timer)
		}
		r.ApplyOperations(w, b.Operations)
		r.ApplySimulation(w, b.Simulation)
		r.Stamp(w, r.now())
	})
}

// ApplyDashboard applies the entities present in a full-update push message.
// Absent entities leave their slots untouched.
func (r *Reconciler) ApplyDashboard(msg model.DashboardMessage) {
	r.renderer.Update(func(w *view.Writer) {
		if msg.Status != nil {
			r.ApplyBotStatus(w, *msg.Status)
		}
		if msg.Winrate != nil {
			r.ApplyWinrate(w, *msg.Winrate)
		}
		if msg.Statistics != nil {
			r.ApplyStatistics(w, *msg.Statistics)
		}
		if msg.Operations != nil {
			r.ApplyOperations(w, *msg.Operations)
		}
		if msg.Timer != nil {
			r.timer.Apply(w, *msg.Timer)
		}
		if msg.Simulation != nil {
			r.ApplySimulation(w, msg.Simulation)
		}
		r.Stamp(w, r.now())
	})
}

// StampNow writes the current time into the stamp slots
func (r *Reconciler) StampNow() {
	r.renderer.Update(func(w *view.Writer) { r.Stamp(w, r.now()) })
}

// ApplyBotStatus renders the status card, the header chip and badge, and
// feeds the balance to the variation tracker
func (r *Reconciler) ApplyBotStatus(w *view.Writer, s model.BotStatus) {
	state := s.DisplayState()
	if state == "" {
		state = format.Placeholder
	}

	w.SetSlot(view.SlotBotState, state)
	w.SetSlot(view.SlotBalance, format.Currency(s.CurrentBalance.Ptr()))
	w.SetSlot(view.SlotGoal, format.Currency(s.CurrentGoal.Ptr()))
	w.SetSlot(view.SlotStopLoss, format.Currency(s.CurrentStopLoss.Ptr()))
	w.SetSlot(view.SlotAccumulatedLoss, format.Currency(s.AccumulatedLoss.Ptr()))

	net := s.NetProfit()
	w.SetSlot(view.SlotNetProfit, format.Currency(&net))
	w.SetClasses(view.SlotNetProfit, map[string]bool{
		view.ClassValuePositive: net >= 0,
		view.ClassValueNegative: net < 0,
	})

	w.SetSlot(view.SlotHeaderChip, state)
	w.SetSlot(view.SlotStatusBadge, state)
	w.SetClasses(view.SlotStatusBadge, map[string]bool{
		view.ClassBadgeRunning: s.Mode() == model.ModeOperating,
		view.ClassBadgePaused:  s.Mode() == model.ModePaused,
	})

	r.balance.Observe(w, s.CurrentBalance.Ptr())
}

// ApplyWinrate renders the win-rate card
func (r *Reconciler) ApplyWinrate(w *view.Writer, s model.WinrateSummary) {
	w.SetSlot(view.SlotTotalOperations, format.Integer(s.TotalOperations.Ptr()))
	w.SetSlot(view.SlotWonOperations, format.Integer(s.WonOperations.Ptr()))
	w.SetSlot(view.SlotWinrate, format.Decimal2(s.WinratePercent.Ptr()))
}

// ApplyStatistics renders the CALL/PUT counters
func (r *Reconciler) ApplyStatistics(w *view.Writer, s model.CallPutStatistics) {
	w.SetSlot(view.SlotCallsWon, format.Integer(s.CallsWon.Ptr()))
	w.SetSlot(view.SlotCallsLost, format.Integer(s.CallsLost.Ptr()))
	w.SetSlot(view.SlotPutsWon, format.Integer(s.PutsWon.Ptr()))
	w.SetSlot(view.SlotPutsLost, format.Integer(s.PutsLost.Ptr()))
}

// ApplyOperations renders the trade history table
func (r *Reconciler) ApplyOperations(w *view.Writer, ops []model.Operation) {
	w.SetTable(view.TableOperations, operationRows(ops), EmptyOperations)
}

// ApplySimulation renders both simulation tables; nil results show as empty
func (r *Reconciler) ApplySimulation(w *view.Writer, sim *model.SimulationResults) {
	var summary []model.SimulationSummaryRow
	var ops []model.Operation
	if sim != nil {
		summary = sim.Summary
		ops = sim.Operations
	}

	rows := make([][]view.Cell, 0, len(summary))
	for _, row := range summary {
		rows = append(rows, []view.Cell{
			{Text: textOrPlaceholder(row.Asset)},
			{Text: textOrPlaceholder(row.StartInstant)},
			{Text: format.Integer(row.TotalOperations.Ptr())},
			{Text: format.Integer(row.WonOperations.Ptr())},
			{Text: format.Integer(row.LostOperations.Ptr())},
			{Text: format.Decimal2(row.WinratePercent.Ptr())},
		})
	}
	w.SetTable(view.TableSimulationSummary, rows, EmptySimulationSummary)
	w.SetTable(view.TableSimulationOperations, operationRows(ops), EmptySimulationOperations)
}

// Stamp writes the last-updated clock and footer date
func (r *Reconciler) Stamp(w *view.Writer, now time.Time) {
	w.SetSlot(view.SlotStampClock, format.Clock(now))
	w.SetSlot(view.SlotStampFooter, format.ShortDate(now))
}

func operationRows(ops []model.Operation) [][]view.Cell {
	rows := make([][]view.Cell, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, []view.Cell{
			{Text: textOrPlaceholder(op.ContractID)},
			{Text: textOrPlaceholder(op.Asset)},
			{Text: textOrPlaceholder(op.Direction)},
			{Text: textOrPlaceholder(op.Result)},
			profitCell(op.Profit),
			{Text: instantOrPlaceholder(op.StartInstant)},
		})
	}
	return rows
}

func profitCell(profit model.Text) view.Cell {
	n := profit.Number()
	if !n.Valid {
		return view.Cell{Text: textOrPlaceholder(profit), Class: view.ClassNegative}
	}
	class := view.ClassNegative
	if n.Value >= 0 {
		class = view.ClassPositive
	}
	return view.Cell{Text: format.Currency(n.Ptr()), Class: class}
}

func textOrPlaceholder(t model.Text) string {
	if !t.Valid {
		return format.Placeholder
	}
	return t.Value
}

func instantOrPlaceholder(t model.Text) string {
	ts, ok := t.Time()
	if !ok {
		return format.Placeholder
	}
	return format.Instant(ts)
}
