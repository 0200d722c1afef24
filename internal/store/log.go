package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luki/modbusmon/internal/sensor"
)

// NoLogText is shown when a sensor has no log file for today.
const NoLogText = "No log."

// Log is the content of one sensor's log file for the current day.
type Log struct {
	Sensor int
	Rows   []sensor.Reading
	Exists bool
}

// Text renders the log as an aligned table with a row index column:
//
//	   Time  Temperature
//	0     0          231
//	1     1          118
func (l Log) Text() string {
	if !l.Exists {
		return NoLogText
	}

	idxW := len(strconv.Itoa(max(len(l.Rows)-1, 0)))
	timeW := len(header[0])
	tempW := len(header[1])
	for _, r := range l.Rows {
		timeW = max(timeW, len(strconv.Itoa(r.Time)))
		tempW = max(tempW, len(strconv.Itoa(r.Temp)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s  %*s  %*s", idxW, "", timeW, header[0], tempW, header[1])
	for i, r := range l.Rows {
		fmt.Fprintf(&sb, "\n%-*d  %*d  %*d", idxW, i, timeW, r.Time, tempW, r.Temp)
	}
	return sb.String()
}
