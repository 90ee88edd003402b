package model

import "time"

// PushMessageType is the discriminator carried by push channel envelopes
type PushMessageType string

// Wire values sent by the bot server, plus the English aliases accepted for
// the same kinds.
const (
	PushTypeTrade           PushMessageType = "operacion"
	PushTypeTradeAlias      PushMessageType = "trade"
	PushTypeError           PushMessageType = "error"
	PushTypeInfo            PushMessageType = "info"
	PushTypeSimulation      PushMessageType = "simulacion"
	PushTypeConnection      PushMessageType = "conexion"
	PushTypeConnectionAlias PushMessageType = "connection-notice"
	PushTypeFullUpdate      PushMessageType = "actualizacion_completa"
	PushTypeFullUpdateAlias PushMessageType = "full-update"
)

// IsTrade reports whether t names a trade notification
func (t PushMessageType) IsTrade() bool {
	return t == PushTypeTrade || t == PushTypeTradeAlias
}

// IsConnectionNotice reports whether t names a connection greeting
func (t PushMessageType) IsConnectionNotice() bool {
	return t == PushTypeConnection || t == PushTypeConnectionAlias
}

// IsFullUpdate reports whether t names an inline dashboard snapshot
func (t PushMessageType) IsFullUpdate() bool {
	return t == PushTypeFullUpdate || t == PushTypeFullUpdateAlias
}

// StatusMessage is the envelope of the status channel
type StatusMessage struct {
	Tipo            PushMessageType `json:"tipo"`
	Type            PushMessageType `json:"type"`
	ApplyPanel      bool            `json:"actualizar_panel"`
	ApplyPanelAlias bool            `json:"applyPanel"`
	Message         string          `json:"mensaje"`
	Error           string          `json:"error"`
}

// Kind returns the discriminator, whichever key carried it
func (m StatusMessage) Kind() PushMessageType {
	if m.Tipo != "" {
		return m.Tipo
	}
	return m.Type
}

// WantsRefresh reports whether the sender asked viewers to reload
func (m StatusMessage) WantsRefresh() bool {
	return m.ApplyPanel || m.ApplyPanelAlias
}

// ErrorText is the embedded error description
func (m StatusMessage) ErrorText() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

// DashboardMessage is the envelope of the dashboard channel. Entity fields are
// pointers so that absent (or null) fields can be told apart from empty ones.
type DashboardMessage struct {
	Tipo       PushMessageType    `json:"tipo"`
	Type       PushMessageType    `json:"type"`
	Message    string             `json:"mensaje,omitempty"`
	Timestamp  string             `json:"timestamp,omitempty"`
	Status     *BotStatus         `json:"estado,omitempty"`
	Winrate    *WinrateSummary    `json:"winrate,omitempty"`
	Statistics *CallPutStatistics `json:"estadisticas,omitempty"`
	Operations *[]Operation       `json:"operaciones,omitempty"`
	Timer      *TimerState        `json:"temporizador,omitempty"`
	Simulation *SimulationResults `json:"simulacion,omitempty"`
}

// Kind returns the discriminator, whichever key carried it
func (m DashboardMessage) Kind() PushMessageType {
	if m.Tipo != "" {
		return m.Tipo
	}
	return m.Type
}

// ViewEventType is the type of a message sent to dashboard viewers
type ViewEventType string

const (
	ViewEventSlotChange ViewEventType = "slot_change"
	ViewEventSnapshot   ViewEventType = "snapshot"
)

// ViewEvent is the envelope for messages sent to viewers over /ws/view
type ViewEvent struct {
	Type    ViewEventType `json:"type"`
	Payload interface{}   `json:"payload"`
	SentAt  time.Time     `json:"sent_at"`
}
