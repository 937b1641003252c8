package airpurifier

// Property names as reported by the device.
const (
	PropertyPower               = "power"
	PropertyFanLevel            = "fan_level"
	PropertyMode                = "mode"
	PropertyAQI                 = "aqi"
	PropertyHumidity            = "humidity"
	PropertyTemperature         = "temperature"
	PropertyFilterLifeRemaining = "filter_life_remaining"
	PropertyFilterHoursUsed     = "filter_hours_used"
	PropertyBuzzer              = "buzzer"
	PropertyLedBrightness       = "led_brightness"
	PropertyLed                 = "led"
	PropertyChildLock           = "child_lock"
	PropertyMotorSpeed          = "motor_speed"
	PropertyFavoriteLevel       = "favorite_level"
	PropertyUseTime             = "use_time"
	PropertyPurifyVolume        = "purify_volume"
	PropertyAverageAQI          = "average_aqi"
	PropertyFilterRFIDTag       = "filter_rfid_tag"
	PropertyFilterRFIDProductID = "filter_rfid_product_id"
)

// Status is one reading of a MIoT air purifier.
type Status struct {
	Power               bool
	FanLevel            int
	Mode                OperationMode
	Humidity            int
	Temperature         float64
	AQI                 int
	AverageAQI          int
	FilterLifeRemaining int
	FilterHoursUsed     int
	Buzzer              bool
	LedBrightness       LedBrightness
	Led                 bool
	ChildLock           bool
	FavoriteLevel       int
	MotorSpeed          int
	UseTime             int
	PurifyVolume        int
	FilterRFIDTag       string
	FilterRFIDProductID string

	missing map[string]struct{}
}

// Reported reports whether the device returned a value for the named property.
// A Status built by hand reports every property.
func (s Status) Reported(property string) bool {
	_, missing := s.missing[property]
	return !missing
}

// PowerState returns "on" or "off".
func (s Status) PowerState() string {
	if s.Power {
		return "on"
	}
	return "off"
}

// FilterType derives the installed filter type.
func (s Status) FilterType() FilterType {
	return DetermineFilterType(s.FilterRFIDTag, s.FilterRFIDProductID)
}
