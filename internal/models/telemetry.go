package models

import (
	"encoding/json"

	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
)

// Telemetry is the JSON document published on a device's state topic.
// Field order and names are consumed by existing dashboards and must not change.
// Readings the device did not report are published as null.
type Telemetry struct {
	Temperature         *float64 `json:"temperature"`
	Power               string   `json:"power"`
	AQI                 *int     `json:"aqi"`
	AverageAQI          *int     `json:"average_aqi"`
	Humidity            *int     `json:"humidity"`
	FanLevel            *int     `json:"fan_level"`
	FilterHoursUsed     *int     `json:"filter_hours_used"`
	FilterLifeRemaining *int     `json:"filter_life_remaining"`
	FavoriteLevel       *int     `json:"favorite_level"`
	ChildLock           *bool    `json:"child_lock"`
	Led                 *bool    `json:"led"`
	MotorSpeed          *int     `json:"motor_speed"`
	PurifyVolume        *int     `json:"purify_volume"`
	UseTime             *int     `json:"use_time"`
	Buzzer              *bool    `json:"buzzer"`
	FilterRFIDProductID *string  `json:"filter_rfid_product_id"`
	FilterRFIDTag       *string  `json:"filter_rfid_tag"`
	Mode                string   `json:"mode"`
	LedBrightness       *string  `json:"led_brightness"`
	FilterType          string   `json:"filter_type"`
}

// NewTelemetry converts a snapshot into its published form.
func NewTelemetry(s DeviceStatus) Telemetry {
	st := s.Status
	return Telemetry{
		Temperature:         reading(st, airpurifier.PropertyTemperature, st.Temperature),
		Power:               st.PowerState(),
		AQI:                 reading(st, airpurifier.PropertyAQI, st.AQI),
		AverageAQI:          reading(st, airpurifier.PropertyAverageAQI, st.AverageAQI),
		Humidity:            reading(st, airpurifier.PropertyHumidity, st.Humidity),
		FanLevel:            reading(st, airpurifier.PropertyFanLevel, st.FanLevel),
		FilterHoursUsed:     reading(st, airpurifier.PropertyFilterHoursUsed, st.FilterHoursUsed),
		FilterLifeRemaining: reading(st, airpurifier.PropertyFilterLifeRemaining, st.FilterLifeRemaining),
		FavoriteLevel:       reading(st, airpurifier.PropertyFavoriteLevel, st.FavoriteLevel),
		ChildLock:           reading(st, airpurifier.PropertyChildLock, st.ChildLock),
		Led:                 reading(st, airpurifier.PropertyLed, st.Led),
		MotorSpeed:          reading(st, airpurifier.PropertyMotorSpeed, st.MotorSpeed),
		PurifyVolume:        reading(st, airpurifier.PropertyPurifyVolume, st.PurifyVolume),
		UseTime:             reading(st, airpurifier.PropertyUseTime, st.UseTime),
		Buzzer:              reading(st, airpurifier.PropertyBuzzer, st.Buzzer),
		FilterRFIDProductID: reading(st, airpurifier.PropertyFilterRFIDProductID, st.FilterRFIDProductID),
		FilterRFIDTag:       reading(st, airpurifier.PropertyFilterRFIDTag, st.FilterRFIDTag),
		Mode:                st.Mode.String(),
		LedBrightness:       reading(st, airpurifier.PropertyLedBrightness, st.LedBrightness.String()),
		FilterType:          st.FilterType().String(),
	}
}

// reading returns nil when the device did not report property.
func reading[T any](st airpurifier.Status, property string, v T) *T {
	if !st.Reported(property) {
		return nil
	}
	return &v
}

// EncodeTelemetry serializes a snapshot for publishing.
func EncodeTelemetry(s DeviceStatus) ([]byte, error) {
	return json.Marshal(NewTelemetry(s))
}
