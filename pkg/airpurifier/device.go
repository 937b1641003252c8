package airpurifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/airpurifier2mqtt/pkg/miio"
)

const (
	MinFavoriteLevel = 0
	MaxFavoriteLevel = 14
)

var (
	// ErrIncompleteStatus is returned when the device omits a mandatory property.
	ErrIncompleteStatus = errors.New("airpurifier: incomplete status")

	// ErrInvalidValue is returned when a setter receives an out-of-range value.
	ErrInvalidValue = errors.New("airpurifier: invalid value")
)

// MIoT mapping for zhimi.airpurifier.mb3 / ma4.
var (
	propPower               = miio.Property{Name: PropertyPower, SIID: 2, PIID: 2}
	propFanLevel            = miio.Property{Name: PropertyFanLevel, SIID: 2, PIID: 4}
	propMode                = miio.Property{Name: PropertyMode, SIID: 2, PIID: 5}
	propAQI                 = miio.Property{Name: PropertyAQI, SIID: 3, PIID: 6}
	propHumidity            = miio.Property{Name: PropertyHumidity, SIID: 3, PIID: 7}
	propTemperature         = miio.Property{Name: PropertyTemperature, SIID: 3, PIID: 8}
	propFilterLifeRemaining = miio.Property{Name: PropertyFilterLifeRemaining, SIID: 4, PIID: 3}
	propFilterHoursUsed     = miio.Property{Name: PropertyFilterHoursUsed, SIID: 4, PIID: 5}
	propBuzzer              = miio.Property{Name: PropertyBuzzer, SIID: 5, PIID: 1}
	propLedBrightness       = miio.Property{Name: PropertyLedBrightness, SIID: 6, PIID: 1}
	propLed                 = miio.Property{Name: PropertyLed, SIID: 6, PIID: 6}
	propChildLock           = miio.Property{Name: PropertyChildLock, SIID: 7, PIID: 1}
	propMotorSpeed          = miio.Property{Name: PropertyMotorSpeed, SIID: 10, PIID: 8}
	propFavoriteLevel       = miio.Property{Name: PropertyFavoriteLevel, SIID: 10, PIID: 10}
	propUseTime             = miio.Property{Name: PropertyUseTime, SIID: 12, PIID: 1}
	propPurifyVolume        = miio.Property{Name: PropertyPurifyVolume, SIID: 13, PIID: 1}
	propAverageAQI          = miio.Property{Name: PropertyAverageAQI, SIID: 13, PIID: 2}
	propFilterRFIDTag       = miio.Property{Name: PropertyFilterRFIDTag, SIID: 14, PIID: 1}
	propFilterRFIDProductID = miio.Property{Name: PropertyFilterRFIDProductID, SIID: 14, PIID: 3}
)

var statusProperties = []miio.Property{
	propPower, propFanLevel, propMode, propAQI, propHumidity, propTemperature,
	propFilterLifeRemaining, propFilterHoursUsed, propBuzzer, propLedBrightness, propLed,
	propChildLock, propMotorSpeed, propFavoriteLevel, propUseTime, propPurifyVolume,
	propAverageAQI, propFilterRFIDTag, propFilterRFIDProductID,
}

// PropertyClient is the subset of the miIO client the purifier needs.
type PropertyClient interface {
	GetProperties(props []miio.Property) (map[string]miio.PropertyValue, error)
	SetProperty(p miio.Property, value any) error
}

// AirPurifier controls one MIoT air purifier. All methods block on device I/O.
type AirPurifier struct {
	client PropertyClient
}

// New connects lazily to the purifier at address with the given token.
func New(address, token string, timeout time.Duration) (*AirPurifier, error) {
	client, err := miio.NewClient(address, token, miio.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing property client.
func NewWithClient(client PropertyClient) *AirPurifier {
	return &AirPurifier{client: client}
}

// Status reads every telemetry property.
func (a *AirPurifier) Status() (*Status, error) {
	values, err := a.client.GetProperties(statusProperties)
	if err != nil {
		return nil, err
	}

	for _, required := range []miio.Property{propPower, propMode} {
		if _, ok := values[required.Name]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteStatus, required.Name)
		}
	}

	d := decoder{values: values}
	s := &Status{
		Power:               d.boolValue(propPower),
		FanLevel:            d.intValue(propFanLevel),
		Mode:                OperationMode(d.intValue(propMode)),
		Humidity:            d.intValue(propHumidity),
		Temperature:         d.floatValue(propTemperature),
		AQI:                 d.intValue(propAQI),
		AverageAQI:          d.intValue(propAverageAQI),
		FilterLifeRemaining: d.intValue(propFilterLifeRemaining),
		FilterHoursUsed:     d.intValue(propFilterHoursUsed),
		Buzzer:              d.boolValue(propBuzzer),
		LedBrightness:       LedBrightness(d.intValue(propLedBrightness)),
		Led:                 d.boolValue(propLed),
		ChildLock:           d.boolValue(propChildLock),
		FavoriteLevel:       d.intValue(propFavoriteLevel),
		MotorSpeed:          d.intValue(propMotorSpeed),
		UseTime:             d.intValue(propUseTime),
		PurifyVolume:        d.intValue(propPurifyVolume),
		FilterRFIDTag:       d.stringValue(propFilterRFIDTag),
		FilterRFIDProductID: d.stringValue(propFilterRFIDProductID),
		missing:             d.missing,
	}
	if d.err != nil {
		return nil, d.err
	}
	if !s.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidValue, int(s.Mode))
	}
	if !s.LedBrightness.Valid() {
		return nil, fmt.Errorf("%w: unknown led brightness %d", ErrInvalidValue, int(s.LedBrightness))
	}

	return s, nil
}

// On powers the purifier on.
func (a *AirPurifier) On() error {
	return a.client.SetProperty(propPower, true)
}

// Off powers the purifier off.
func (a *AirPurifier) Off() error {
	return a.client.SetProperty(propPower, false)
}

// SetMode switches the operation mode.
func (a *AirPurifier) SetMode(mode OperationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: mode %d", ErrInvalidValue, int(mode))
	}
	return a.client.SetProperty(propMode, int(mode))
}

// SetFavoriteLevel sets the fan level used in Favorite mode.
func (a *AirPurifier) SetFavoriteLevel(level int) error {
	if level < MinFavoriteLevel || level > MaxFavoriteLevel {
		return fmt.Errorf("%w: favorite level %d not in [%d, %d]", ErrInvalidValue, level, MinFavoriteLevel, MaxFavoriteLevel)
	}
	return a.client.SetProperty(propFavoriteLevel, level)
}

// decoder converts raw property values, remembering the first error.
// Properties the device did not report decode to zero values and are
// recorded as missing.
type decoder struct {
	values  map[string]miio.PropertyValue
	missing map[string]struct{}
	err     error
}

func (d *decoder) decode(p miio.Property, v any) {
	pv, ok := d.values[p.Name]
	if !ok || len(pv.Value) == 0 || string(pv.Value) == "null" {
		if d.missing == nil {
			d.missing = make(map[string]struct{})
		}
		d.missing[p.Name] = struct{}{}
		return
	}
	if d.err != nil {
		return
	}
	if err := json.Unmarshal(pv.Value, v); err != nil {
		d.err = fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, err)
	}
}

func (d *decoder) boolValue(p miio.Property) bool {
	var v bool
	d.decode(p, &v)
	return v
}

func (d *decoder) intValue(p miio.Property) int {
	var v float64
	d.decode(p, &v)
	return int(v)
}

func (d *decoder) floatValue(p miio.Property) float64 {
	var v float64
	d.decode(p, &v)
	return v
}

func (d *decoder) stringValue(p miio.Property) string {
	var v string
	d.decode(p, &v)
	return v
}
