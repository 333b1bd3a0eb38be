package api

import "time"

// BedResponse aggregates bed assignment, patient and latest vitals for the
// REST surface. Sub-records can be absent (empty bed, patient without
// vitals yet); their fields are omitted rather than fabricated.
type BedResponse struct {
	// Bed assignment
	BedID     string `json:"bedId"`
	BedNo     string `json:"bedNo"`
	WardNo    string `json:"wardNo"`
	IPAddress string `json:"ipAddress"`

	// Patient registration
	PatientID        *string `json:"patientId,omitempty"`
	Name             *string `json:"name,omitempty"`
	Sex              *string `json:"sex,omitempty"`
	Age              *int    `json:"age,omitempty"`
	HeartRateMinima  *int    `json:"heartRateMinima,omitempty"`
	HeartRateMaxima  *int    `json:"heartRateMaxima,omitempty"`
	SpO2Minima       *int    `json:"spO2Minima,omitempty"`
	SystolicBPMinima *int    `json:"systolicBPMinima,omitempty"`
	SystolicBPMaxima *int    `json:"systolicBPMaxima,omitempty"`

	// Latest vitals snapshot
	Time               *time.Time `json:"time,omitempty"`
	BpmCurrent         *float64   `json:"bpmCurrent,omitempty"`
	BpmAvg             *float64   `json:"bpmAvg,omitempty"`
	BpSystolicCurrent  *float64   `json:"bpSystolicCurrent,omitempty"`
	BpSystolicAvg      *float64   `json:"bpSystolicAvg,omitempty"`
	BpDiastolicCurrent *float64   `json:"bpDiastolicCurrent,omitempty"`
	BpDiastolicAvg     *float64   `json:"bpDiastolicAvg,omitempty"`
	SpO2Current        *float64   `json:"spO2Current,omitempty"`
	SpO2Avg            *float64   `json:"spO2Avg,omitempty"`
}

// RealtimeSnapshot is one per-tick push to a live-view client. Arrays are
// empty, never null, when nothing new arrived since the last tick.
type RealtimeSnapshot struct {
	PPG []float64 `json:"ppg"`
	ECG []float64 `json:"ecg"`
}
