// Package series holds the rolling heart-rate window that drives the
// dashboard chart and history table, plus the pure transforms between
// backend records and what the views draw.
package series

import "time"

const (
	// Capacity is the number of samples kept for the chart.
	Capacity = 20
	// TableRows is the number of rows the history table shows.
	TableRows = 10

	// AxisMin and AxisMax bound the chart's Y axis in lpm.
	AxisMin = 40
	AxisMax = 120

	highAbove = 100
	lowBelow  = 60

	clockLayout   = "15:04:05"
	missingClock  = "--:--:--"
	rowTimeLayout = "2006-01-02 15:04:05"
	missingRow    = "--"
)

// Sample is one heart-rate reading. A zero Time means the source did not
// report when it was taken.
type Sample struct {
	HeartRate int // lpm
	Time      time.Time
}

// Status is the classification of a heart rate.
type Status int

const (
	Normal Status = iota
	Low
	High
)

func (s Status) String() string {
	switch s {
	case High:
		return "High"
	case Low:
		return "Low"
	default:
		return "Normal"
	}
}

// Classify maps a rate to High (>100), Low (<60) or Normal. Both bounds
// are inclusive on the normal side.
func Classify(rate int) Status {
	switch {
	case rate > highAbove:
		return High
	case rate < lowBelow:
		return Low
	default:
		return Normal
	}
}

// Status returns the classification of the sample's rate.
func (s Sample) Status() Status {
	return Classify(s.HeartRate)
}

// ClockLabel formats the sample time as a local clock string for chart labels.
func (s Sample) ClockLabel() string {
	if s.Time.IsZero() {
		return missingClock
	}
	return s.Time.Local().Format(clockLayout)
}

// RowTime formats the sample time for the history table.
func (s Sample) RowTime() string {
	if s.Time.IsZero() {
		return missingRow
	}
	return s.Time.Local().Format(rowTimeLayout)
}
