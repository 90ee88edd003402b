package model

// TimerState is the authoritative pause countdown
type TimerState struct {
	Paused              bool    `json:"pausado"`
	PauseElapsedSeconds Seconds `json:"tiempo_detencion"`
	RemainingSeconds    Seconds `json:"tiempo_restante"`
	ReactivationInstant Text    `json:"reactivacion"`
}
