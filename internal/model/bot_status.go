package model

import "strings"

// Mode is the bot's operating mode as reported by the server
type Mode string

const (
	ModeOperating Mode = "operando"
	ModePaused    Mode = "pausado"
	ModeUnknown   Mode = ""
)

// BotStatus is the bot state snapshot served by the status resource
type BotStatus struct {
	State             string `json:"estado"`
	CurrentBalance    Number `json:"balance_actual"`
	CurrentGoal       Number `json:"meta_actual"`
	CurrentStopLoss   Number `json:"stop_loss_actual"`
	AccumulatedProfit Number `json:"ganancia_acumulada"`
	AccumulatedLoss   Number `json:"perdida_acumulada"`
	SelectedAsset     string `json:"activo_seleccionado,omitempty"`
	InOperation       bool   `json:"en_operacion,omitempty"`
}

// Mode classifies the raw state string
func (s BotStatus) Mode() Mode {
	switch Mode(s.State) {
	case ModeOperating, ModePaused:
		return Mode(s.State)
	default:
		return ModeUnknown
	}
}

// DisplayState is the uppercase state, or "" when the server sent none
func (s BotStatus) DisplayState() string {
	return strings.ToUpper(s.State)
}

// NetProfit is accumulated profit minus accumulated loss, absent parts count
// as zero
func (s BotStatus) NetProfit() float64 {
	return s.AccumulatedProfit.OrZero() - s.AccumulatedLoss.OrZero()
}
