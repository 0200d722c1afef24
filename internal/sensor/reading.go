// Package sensor defines the temperature reading model and the synthetic
// source that stands in for the Modbus transmitters.
package sensor

// MaxSensors is the largest sensor count the selector offers.
const MaxSensors = 4

// Reading is a single temperature sample taken at one tick.
type Reading struct {
	Time int // tick counter, starts at 0
	Temp int // temperature, [MinTemp, MaxTemp)
}

// ValidCount reports whether n is an allowed sensor count.
func ValidCount(n int) bool {
	return n >= 1 && n <= MaxSensors
}
