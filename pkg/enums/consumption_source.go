package enums

import "fmt"

// ConsumptionSource names one of the equivalent consumption read endpoints.
type ConsumptionSource string

const (
	ConsumptionSourceHistory ConsumptionSource = "history"
	ConsumptionSourceFlat    ConsumptionSource = "flat"
	ConsumptionSourceLegacy  ConsumptionSource = "legacy"
)

// ConsumptionSourcePriority is the order in which sources are attempted.
var ConsumptionSourcePriority = []ConsumptionSource{
	ConsumptionSourceHistory,
	ConsumptionSourceFlat,
	ConsumptionSourceLegacy,
}

// String implements fmt.Stringer.
func (s ConsumptionSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConsumptionSource.
func (s ConsumptionSource) IsValid() bool {
	for _, candidate := range ConsumptionSourcePriority {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConsumptionSource converts raw input into a ConsumptionSource.
func ParseConsumptionSource(value string) (ConsumptionSource, error) {
	for _, candidate := range ConsumptionSourcePriority {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid consumption source %q", value)
}
