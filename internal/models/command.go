package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
)

// Command is one decoded command message: property name to requested value.
type Command map[string]any

// ParseCommand decodes a command payload. The payload must be a JSON object.
// Numbers are kept as json.Number so integer fields can be told apart from floats.
func ParseCommand(payload []byte) (Command, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedCommand)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedCommand)
	}
	return Command(obj), nil
}

// Fields returns the property names in sorted order.
func (c Command) Fields() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandKind enumerates the accepted command properties.
type CommandKind int

const (
	CommandPower CommandKind = iota + 1
	CommandMode
	CommandFavoriteLevel
)

func (k CommandKind) String() string {
	switch k {
	case CommandPower:
		return constants.CommandPower
	case CommandMode:
		return constants.CommandMode
	case CommandFavoriteLevel:
		return constants.CommandFavoriteLevel
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// DeviceCommand is one validated device operation. Only the field matching Kind is set.
type DeviceCommand struct {
	Kind  CommandKind
	Power bool
	Mode  airpurifier.OperationMode
	Level int
}

func (c DeviceCommand) String() string {
	switch c.Kind {
	case CommandPower:
		if c.Power {
			return "power=" + constants.PowerOn
		}
		return "power=" + constants.PowerOff
	case CommandMode:
		return "mode=" + c.Mode.String()
	case CommandFavoriteLevel:
		return fmt.Sprintf("favorite_level=%d", c.Level)
	default:
		return c.Kind.String()
	}
}

type commandValidator func(value any) (DeviceCommand, error)

var commandTable = map[string]commandValidator{
	constants.CommandPower:         validatePower,
	constants.CommandMode:          validateMode,
	constants.CommandFavoriteLevel: validateFavoriteLevel,
}

// ValidateField checks one command property against the command table.
func ValidateField(name string, value any) (DeviceCommand, error) {
	validate, ok := commandTable[name]
	if !ok {
		return DeviceCommand{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return validate(value)
}

func validatePower(value any) (DeviceCommand, error) {
	s, ok := value.(string)
	if !ok {
		return DeviceCommand{}, invalidValue(constants.CommandPower, value)
	}
	switch s {
	case constants.PowerOn:
		return DeviceCommand{Kind: CommandPower, Power: true}, nil
	case constants.PowerOff:
		return DeviceCommand{Kind: CommandPower, Power: false}, nil
	}
	return DeviceCommand{}, invalidValue(constants.CommandPower, value)
}

func validateMode(value any) (DeviceCommand, error) {
	s, ok := value.(string)
	if !ok {
		return DeviceCommand{}, invalidValue(constants.CommandMode, value)
	}
	mode, ok := airpurifier.ParseOperationMode(s)
	if !ok {
		return DeviceCommand{}, invalidValue(constants.CommandMode, value)
	}
	return DeviceCommand{Kind: CommandMode, Mode: mode}, nil
}

func validateFavoriteLevel(value any) (DeviceCommand, error) {
	var level int64
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return DeviceCommand{}, invalidValue(constants.CommandFavoriteLevel, value)
		}
		level = n
	case int:
		level = int64(v)
	case int64:
		level = v
	default:
		return DeviceCommand{}, invalidValue(constants.CommandFavoriteLevel, value)
	}

	if level < airpurifier.MinFavoriteLevel || level > airpurifier.MaxFavoriteLevel {
		return DeviceCommand{}, invalidValue(constants.CommandFavoriteLevel, value)
	}
	return DeviceCommand{Kind: CommandFavoriteLevel, Level: int(level)}, nil
}

func invalidValue(name string, value any) error {
	return fmt.Errorf("%w: %s=%v (%T)", ErrInvalidCommandValue, name, value, value)
}
