// Package sample holds the observation records collected during a run and
// the append-only log shared by the receive path and the fault injector.
package sample

import (
	"encoding/json"
	"fmt"
)

// Sentinel marks "no sequence number": the seq_num of a disconnect marker,
// a last_seq_num when no message has arrived yet, and a reconnect_time
// that is still pending.
const Sentinel int64 = -1

// Sample is one recorded observation, either a message arrival or a
// disconnect marker.
type Sample interface {
	isSample()
}

// Arrival records one received message. Times are millisecond epoch.
type Arrival struct {
	SeqNum   int64 `json:"seq_num"`
	SendTime int64 `json:"send_time"`
	RecvTime int64 `json:"rcv_time"`
	Latency  int64 `json:"time_diff"`
	QoS      byte  `json:"qos"`
}

// DisconnectMarker records one injected disconnect. ReconnectTime stays
// Sentinel until the session controller completes the next reconnect.
type DisconnectMarker struct {
	SeqNum         int64 `json:"seq_num"`
	LastSeqNum     int64 `json:"last_seq_num"`
	DisconnectTime int64 `json:"disconnect_time"`
	ReconnectTime  int64 `json:"reconnect_time"`
}

func (Arrival) isSample()           {}
func (*DisconnectMarker) isSample() {}

// Pending reports whether the marker is still waiting for its reconnect.
func (m *DisconnectMarker) Pending() bool {
	return m.ReconnectTime == Sentinel
}

// Decode parses one serialized sample, picking the variant from seq_num.
func Decode(data []byte) (Sample, error) {
	var probe struct {
		SeqNum int64 `json:"seq_num"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	if probe.SeqNum == Sentinel {
		var m DisconnectMarker
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode disconnect marker: %w", err)
		}
		return &m, nil
	}
	var a Arrival
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode arrival: %w", err)
	}
	return a, nil
}
