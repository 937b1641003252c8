package airpurifier

import (
	"fmt"
	"regexp"
)

// OperationMode is the purifier fan mode.
type OperationMode int

const (
	ModeAuto     OperationMode = 0
	ModeSilent   OperationMode = 1
	ModeFavorite OperationMode = 2
	ModeFan      OperationMode = 3
)

var operationModeNames = map[OperationMode]string{
	ModeAuto:     "Auto",
	ModeSilent:   "Silent",
	ModeFavorite: "Favorite",
	ModeFan:      "Fan",
}

func (m OperationMode) String() string {
	if name, ok := operationModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("OperationMode(%d)", int(m))
}

// Valid reports whether m is a known mode.
func (m OperationMode) Valid() bool {
	_, ok := operationModeNames[m]
	return ok
}

// ParseOperationMode returns the mode with the given name. Names are case-sensitive.
func ParseOperationMode(name string) (OperationMode, bool) {
	for mode, n := range operationModeNames {
		if n == name {
			return mode, true
		}
	}
	return 0, false
}

// LedBrightness is the display brightness.
type LedBrightness int

const (
	LedBright LedBrightness = 0
	LedDim    LedBrightness = 1
	LedOff    LedBrightness = 2
)

var ledBrightnessNames = map[LedBrightness]string{
	LedBright: "Bright",
	LedDim:    "Dim",
	LedOff:    "Off",
}

func (b LedBrightness) String() string {
	if name, ok := ledBrightnessNames[b]; ok {
		return name
	}
	return fmt.Sprintf("LedBrightness(%d)", int(b))
}

// Valid reports whether b is a known brightness.
func (b LedBrightness) Valid() bool {
	_, ok := ledBrightnessNames[b]
	return ok
}

// FilterType is derived from the filter RFID data.
type FilterType string

const (
	FilterRegular          FilterType = "Regular"
	FilterAntiBacterial    FilterType = "AntiBacterial"
	FilterAntiFormaldehyde FilterType = "AntiFormaldehyde"
	FilterUnknown          FilterType = "Unknown"
)

func (f FilterType) String() string {
	return string(f)
}

const unprogrammedRFIDTag = "0:0:0:0:0:0:0"

// Product id patterns, checked in order; the last one matches everything.
var filterTypePatterns = []struct {
	re  *regexp.Regexp
	typ FilterType
}{
	{regexp.MustCompile(`^\d+:\d+:41:30$`), FilterAntiBacterial},
	{regexp.MustCompile(`^\d+:\d+:(30|0|00):31$`), FilterAntiFormaldehyde},
	{regexp.MustCompile(`.*`), FilterRegular},
}

// DetermineFilterType derives the filter type from the RFID tag and product id.
// An empty value means the device did not report it.
func DetermineFilterType(rfidTag, productID string) FilterType {
	if rfidTag == "" {
		return FilterRegular
	}
	if rfidTag == unprogrammedRFIDTag {
		return FilterUnknown
	}
	if productID == "" {
		return FilterRegular
	}

	for _, p := range filterTypePatterns {
		if p.re.MatchString(productID) {
			return p.typ
		}
	}
	return FilterUnknown
}
