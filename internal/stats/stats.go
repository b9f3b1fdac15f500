// Package stats reduces a finalized sample sequence into the end-of-run
// latency and loss report.
package stats

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"qos-probe/internal/sample"
)

// Summary holds the reduced statistics for one run.
type Summary struct {
	Expected    int
	Received    int
	Disconnects int
	LossPct     float64

	// Latency statistics, valid only when Received > 0.
	MinMs    int64
	MaxMs    int64
	MedianMs float64
	// MeanMs divides the latency sum by the total log length, disconnect
	// markers included. The denominator is kept from the reference data
	// set so historical reports stay comparable.
	MeanMs float64

	// StdevMs is the sample standard deviation; it needs at least two
	// arrivals. StdevDefined is false otherwise.
	StdevMs      float64
	StdevDefined bool
}

// Compute reduces the snapshot. expected is the number of packets the
// paired publisher was configured to send.
func Compute(samples []sample.Sample, expected int) Summary {
	s := Summary{Expected: expected, MinMs: sample.Sentinel, MaxMs: sample.Sentinel}

	var latencies []int64
	var sum int64
	for _, sm := range samples {
		switch v := sm.(type) {
		case sample.Arrival:
			latencies = append(latencies, v.Latency)
			sum += v.Latency
		case *sample.DisconnectMarker:
			s.Disconnects++
		}
	}
	s.Received = len(latencies)
	if expected > 0 {
		s.LossPct = float64(expected-s.Received) / float64(expected) * 100
	}
	if s.Received == 0 {
		return s
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	s.MinMs = sorted[0]
	s.MaxMs = sorted[len(sorted)-1]
	s.MedianMs = median(sorted)
	s.MeanMs = float64(sum) / float64(len(samples))

	if s.Received >= 2 {
		mean := float64(sum) / float64(len(latencies))
		var sq float64
		for _, l := range latencies {
			d := float64(l) - mean
			sq += d * d
		}
		s.StdevMs = math.Sqrt(sq / float64(len(latencies)-1))
		s.StdevDefined = true
	}
	return s
}

// RunMeta annotates a report block with run identification.
type RunMeta struct {
	StartTime time.Time
	NetCond   string
	QoS       byte
	DataFile  string
}

// Render produces one report block in the cumulative stats file format.
func (s Summary) Render(meta RunMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subscriber\n")
	fmt.Fprintf(&b, "----------\n")
	fmt.Fprintf(&b, "Start time: %s\n", meta.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Network conditions: %s\n", meta.NetCond)
	fmt.Fprintf(&b, "QoS level: %d\n", meta.QoS)
	fmt.Fprintf(&b, "Data file: %s\n", meta.DataFile)
	fmt.Fprintf(&b, "Number of packets sent: %d\n", s.Expected)
	fmt.Fprintf(&b, "Number of packets received: %d\n", s.Received)
	fmt.Fprintf(&b, "Packet loss: %g%%\n", s.LossPct)
	fmt.Fprintf(&b, "Disconnects: %d\n", s.Disconnects)
	fmt.Fprintf(&b, "---End-to-End Delay\n")
	if s.Received == 0 {
		fmt.Fprintf(&b, "insufficient data\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Min: %dms\n", s.MinMs)
	fmt.Fprintf(&b, "Mean: %gms\n", s.MeanMs)
	fmt.Fprintf(&b, "Median: %gms\n", s.MedianMs)
	fmt.Fprintf(&b, "Max: %dms\n", s.MaxMs)
	if s.StdevDefined {
		fmt.Fprintf(&b, "Standard Deviation: %g\n", s.StdevMs)
	} else {
		fmt.Fprintf(&b, "Standard Deviation: undefined\n")
	}
	return b.String()
}

// AppendReport appends one rendered block to the cumulative stats file.
func AppendReport(path, block string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(block + "\n\n"); err != nil {
		return err
	}
	return nil
}

func median(sorted []int64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
