package sensor

import "fmt"

// Label returns the display name for a 0-based sensor index.
func Label(idx int) string {
	return fmt.Sprintf("Sensor %d", idx+1)
}

// Number converts a 0-based index to the 1-based number used in file names.
func Number(idx int) int {
	return idx + 1
}
