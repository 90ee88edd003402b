package model

// WinrateSummary is served by the win-rate resource
type WinrateSummary struct {
	TotalOperations Number `json:"total_operaciones"`
	WonOperations   Number `json:"ganadas"`
	WinratePercent  Number `json:"winrate"`
}

// CallPutStatistics splits won/lost operations by direction
type CallPutStatistics struct {
	CallsWon  Number `json:"ganadas_call"`
	CallsLost Number `json:"perdidas_call"`
	PutsWon   Number `json:"ganadas_put"`
	PutsLost  Number `json:"perdidas_put"`
}

// BalanceSummary is served by the balance resource
type BalanceSummary struct {
	CurrentBalance  Number `json:"balance_actual"`
	CurrentGoal     Number `json:"meta_actual"`
	CurrentStopLoss Number `json:"stop_loss_actual"`
}
