package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberDecoding(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		value float64
	}{
		{`null`, false, 0},
		{`"1520.75"`, true, 1520.75},
		{`42`, true, 42},
		{`"abc"`, false, 0},
		{`""`, true, 0},
		{`"NaN"`, false, 0},
		{`"Infinity"`, false, 0},
		{`1e400`, false, 0},
		{`{}`, false, 0},
	}
	for _, tc := range cases {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tc.in), &n), tc.in)
		assert.Equal(t, tc.valid, n.Valid, tc.in)
		assert.Equal(t, tc.value, n.Value, tc.in)
	}
}

func TestSecondsRoundsToNearest(t *testing.T) {
	var s Seconds
	require.NoError(t, json.Unmarshal([]byte(`125.6`), &s))
	assert.Equal(t, NewSeconds(126), s)

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.False(t, s.Valid)
}

func TestBotStatusDecoding(t *testing.T) {
	payload := `{
		"estado": "pausado",
		"balance_actual": "1000.50",
		"meta_actual": "1100",
		"stop_loss_actual": "950",
		"ganancia_acumulada": "25.5",
		"perdida_acumulada": "10.25"
	}`
	var status BotStatus
	require.NoError(t, json.Unmarshal([]byte(payload), &status))

	assert.Equal(t, ModePaused, status.Mode())
	assert.Equal(t, "PAUSADO", status.DisplayState())
	assert.InDelta(t, 1000.50, status.CurrentBalance.Value, 1e-9)
	assert.InDelta(t, 15.25, status.NetProfit(), 1e-9)
}

func TestBotStatusUnknownMode(t *testing.T) {
	assert.Equal(t, ModeUnknown, BotStatus{State: "detenido"}.Mode())
	assert.Equal(t, ModeUnknown, BotStatus{}.Mode())
}

func TestTextKeepsScalarsVerbatim(t *testing.T) {
	var op Operation
	require.NoError(t, json.Unmarshal([]byte(`{"numero_contrato": 998877, "activo": "R_100", "beneficio": "-1.00", "hora_inicio": null}`), &op))

	assert.Equal(t, NewText("998877"), op.ContractID)
	assert.Equal(t, NewText("R_100"), op.Asset)
	assert.False(t, op.StartInstant.Valid)
	assert.Equal(t, NewNumber(-1), op.Profit.Number())
	assert.False(t, op.Direction.Valid)
}

func TestTextTime(t *testing.T) {
	ts, ok := NewText("2025-03-01T10:15:00Z").Time()
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	_, ok = NewText("10:15").Time()
	assert.False(t, ok)
}

func TestStatusMessageKindAndFlags(t *testing.T) {
	var msg StatusMessage
	require.NoError(t, json.Unmarshal([]byte(`{"tipo":"operacion","actualizar_panel":true}`), &msg))
	assert.True(t, msg.Kind().IsTrade())
	assert.True(t, msg.WantsRefresh())

	msg = StatusMessage{}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"trade","applyPanel":true}`), &msg))
	assert.True(t, msg.Kind().IsTrade())
	assert.True(t, msg.WantsRefresh())

	msg = StatusMessage{}
	require.NoError(t, json.Unmarshal([]byte(`{"tipo":"error","error":"boom"}`), &msg))
	assert.Equal(t, "boom", msg.ErrorText())
}

func TestDashboardMessagePresence(t *testing.T) {
	var msg DashboardMessage
	require.NoError(t, json.Unmarshal([]byte(`{"tipo":"actualizacion_completa","estado":{"estado":"operando"},"operaciones":[],"winrate":null}`), &msg))

	assert.True(t, msg.Kind().IsFullUpdate())
	require.NotNil(t, msg.Status)
	require.NotNil(t, msg.Operations)
	assert.Empty(t, *msg.Operations)
	assert.Nil(t, msg.Winrate)
	assert.Nil(t, msg.Timer)
	assert.Nil(t, msg.Statistics)
}
