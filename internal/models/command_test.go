package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"power":"on","mode":"Bogus","favorite_level":3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"favorite_level", "mode", "power"}, cmd.Fields())
	assert.Equal(t, json.Number("3"), cmd["favorite_level"])
}

func TestParseCommand_Malformed(t *testing.T) {
	for _, payload := range []string{``, `not json`, `[1,2]`, `"on"`, `{"power":"on"} {}`, `null`} {
		_, err := ParseCommand([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedCommand, "payload %q", payload)
	}
}

func TestValidateField_Power(t *testing.T) {
	on, err := ValidateField("power", "on")
	require.NoError(t, err)
	assert.Equal(t, DeviceCommand{Kind: CommandPower, Power: true}, on)
	assert.Equal(t, "power=on", on.String())

	off, err := ValidateField("power", "off")
	require.NoError(t, err)
	assert.False(t, off.Power)

	_, err = ValidateField("power", "ON")
	assert.ErrorIs(t, err, ErrInvalidCommandValue)
	_, err = ValidateField("power", true)
	assert.ErrorIs(t, err, ErrInvalidCommandValue)
}

func TestValidateField_Mode(t *testing.T) {
	cmd, err := ValidateField("mode", "Favorite")
	require.NoError(t, err)
	assert.Equal(t, airpurifier.ModeFavorite, cmd.Mode)
	assert.Equal(t, "mode=Favorite", cmd.String())

	_, err = ValidateField("mode", "Bogus")
	assert.ErrorIs(t, err, ErrInvalidCommandValue)
	_, err = ValidateField("mode", json.Number("2"))
	assert.ErrorIs(t, err, ErrInvalidCommandValue)
}

func TestValidateField_FavoriteLevel(t *testing.T) {
	tests := []struct {
		value any
		ok    bool
	}{
		{json.Number("0"), true},
		{json.Number("14"), true},
		{json.Number("7"), true},
		{7, true},
		{json.Number("-1"), false},
		{json.Number("15"), false},
		{json.Number("14.0"), false},
		{json.Number("3.5"), false},
		{3.0, false},
		{"5", false},
		{nil, false},
	}

	for _, tt := range tests {
		cmd, err := ValidateField("favorite_level", tt.value)
		if tt.ok {
			require.NoError(t, err, "value %v", tt.value)
			assert.Equal(t, CommandFavoriteLevel, cmd.Kind)
		} else {
			assert.ErrorIs(t, err, ErrInvalidCommandValue, "value %v", tt.value)
		}
	}
}

func TestValidateField_Unknown(t *testing.T) {
	_, err := ValidateField("buzzer", true)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
