package view

// Scalar slot identifiers. The ids match the element ids of the bot's web
// panel so the same front-end markup can be driven from this view.
const (
	SlotBotState        = "estado-bot"
	SlotHeaderChip      = "chip-estado"
	SlotStatusBadge     = "badge-estado"
	SlotBalance         = "balance-actual"
	SlotGoal            = "meta-actual"
	SlotStopLoss        = "stop-loss-actual"
	SlotAccumulatedLoss = "perdida-acumulada"
	SlotNetProfit       = "ganancia-acumulada"
	SlotBalanceVariance = "variacion-balance"

	SlotTotalOperations = "total-operaciones"
	SlotWonOperations   = "operaciones-ganadas"
	SlotWinrate         = "winrate"

	SlotCallsWon  = "ganadas-call"
	SlotCallsLost = "perdidas-call"
	SlotPutsWon   = "ganadas-put"
	SlotPutsLost  = "perdidas-put"

	SlotPausedFor      = "pausado-desde"
	SlotReactivationAt = "reactivacion-programada"
	SlotRemaining      = "tiempo-restante"

	SlotStampClock  = "marca-tiempo"
	SlotStampFooter = "marca-tiempo-pie"
)

// Table identifiers
const (
	TableOperations           = "tabla-operaciones"
	TableSimulationSummary    = "tabla-simulacion-resumen"
	TableSimulationOperations = "tabla-simulacion-operaciones"
)

// CSS classes toggled on slots and cells
const (
	ClassPositive      = "positivo"
	ClassNegative      = "negativo"
	ClassValuePositive = "valor-positivo"
	ClassValueNegative = "valor-negativo"
	ClassBadgeRunning  = "panel__status-badge--operando"
	ClassBadgePaused   = "panel__status-badge--pausado"
)

// TableSpec describes a table slot
type TableSpec struct {
	ID      string
	Columns int
}

// Layout lists every slot the renderer accepts writes for
type Layout struct {
	Slots  []string
	Tables []TableSpec
}

// DefaultLayout is the panel layout
func DefaultLayout() Layout {
	return Layout{
		Slots: []string{
			SlotBotState, SlotHeaderChip, SlotStatusBadge,
			SlotBalance, SlotGoal, SlotStopLoss, SlotAccumulatedLoss, SlotNetProfit, SlotBalanceVariance,
			SlotTotalOperations, SlotWonOperations, SlotWinrate,
			SlotCallsWon, SlotCallsLost, SlotPutsWon, SlotPutsLost,
			SlotPausedFor, SlotReactivationAt, SlotRemaining,
			SlotStampClock, SlotStampFooter,
		},
		Tables: []TableSpec{
			{ID: TableOperations, Columns: 6},
			{ID: TableSimulationSummary, Columns: 6},
			{ID: TableSimulationOperations, Columns: 6},
		},
	}
}
