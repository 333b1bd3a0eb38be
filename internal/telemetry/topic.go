package telemetry

import (
	"fmt"
	"strings"
)

// BedKey identifies a physical monitoring point independent of which
// patient currently occupies it.
type BedKey struct {
	WardNo string
	BedNo  string
}

func (k BedKey) String() string {
	return k.WardNo + "/" + k.BedNo
}

// Kind is a waveform kind with its own independent per-session queue.
type Kind string

const (
	KindPPG Kind = "ppg"
	KindECG Kind = "ecg"
)

// Feed parameters as they appear in the third topic segment.
const (
	ParamPatientDetails = "patientDetails"
	ParamHeartRate      = "HR"
	ParamSpO2           = "spO2"
	ParamDiastolicBP    = "diaBP"
	ParamSystolicBP     = "sysBP"
	ParamPPG            = "ppg"
	ParamECG            = "ecg"
)

var knownParameters = map[string]bool{
	ParamPatientDetails: true,
	ParamHeartRate:      true,
	ParamSpO2:           true,
	ParamDiastolicBP:    true,
	ParamSystolicBP:     true,
	ParamPPG:            true,
	ParamECG:            true,
}

// Event is one decoded telemetry feed message.
type Event struct {
	Bed       BedKey
	Parameter string
	Fields    []string
}

// ParseTopic decodes a "<wardNo>/<bedNo>/<parameter>" topic and its
// comma-separated payload into an Event. Malformed topics and unknown
// parameters are errors; the caller drops the event and keeps going.
func ParseTopic(topic string, payload []byte) (Event, error) {
	segments := strings.Split(topic, "/")
	if len(segments) != 3 {
		return Event{}, fmt.Errorf("topic %q: expected 3 segments, got %d", topic, len(segments))
	}

	ward, bed, parameter := segments[0], segments[1], segments[2]
	if ward == "" || bed == "" {
		return Event{}, fmt.Errorf("topic %q: empty ward or bed segment", topic)
	}
	if !knownParameters[parameter] {
		return Event{}, fmt.Errorf("topic %q: unknown parameter %q", topic, parameter)
	}

	return Event{
		Bed:       BedKey{WardNo: ward, BedNo: bed},
		Parameter: parameter,
		Fields:    strings.Split(string(payload), ","),
	}, nil
}
