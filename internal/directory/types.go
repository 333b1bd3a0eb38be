package directory

import (
	"time"

	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

// Document type discriminators, stored on every directory document so the
// bed listing query can filter by kind.
const (
	DocTypePatient = "patient"
	DocTypeBed     = "bed"
	DocTypeMedical = "medical"
)

// Patient is the registration record announced by a bedside monitor.
// Minima/maxima are the alerting thresholds configured for this patient.
type Patient struct {
	Type             string `json:"type"`
	PatientID        string `json:"patientId"`
	Name             string `json:"name"`
	Sex              string `json:"sex"`
	Age              int    `json:"age"`
	HeartRateMinima  int    `json:"heartRateMinima"`
	HeartRateMaxima  int    `json:"heartRateMaxima"`
	SpO2Minima       int    `json:"spO2Minima"`
	SystolicBPMinima int    `json:"systolicBPMinima"`
	SystolicBPMaxima int    `json:"systolicBPMaxima"`
}

// BedAssignment maps a physical bed to its currently assigned patient.
// CurrentPatientID is nil while the bed has no patient. One record per
// BedKey; upserted on every patientDetails event for that bed.
type BedAssignment struct {
	Type             string  `json:"type"`
	WardNo           string  `json:"wardNo"`
	BedNo            string  `json:"bedNo"`
	CurrentPatientID *string `json:"currentPatientId"`
	IPAddress        string  `json:"ipAddress"`
}

// Key returns the bed's composite key.
func (b BedAssignment) Key() telemetry.BedKey {
	return telemetry.BedKey{WardNo: b.WardNo, BedNo: b.BedNo}
}

// BedID returns the bed's external identifier used in REST paths.
func (b BedAssignment) BedID() string {
	return b.WardNo + "-" + b.BedNo
}

// MedicalSnapshot is the per-patient latest scalar vitals. Exactly one live
// snapshot per patient, overwritten in place, never historized.
type MedicalSnapshot struct {
	Type               string    `json:"type"`
	PatientID          string    `json:"patientId"`
	HeartRateCurrent   float64   `json:"bpmCurrent"`
	HeartRateAvg       float64   `json:"bpmAvg"`
	SystolicBPCurrent  float64   `json:"bpSystolicCurrent"`
	SystolicBPAvg      float64   `json:"bpSystolicAvg"`
	DiastolicBPCurrent float64   `json:"bpDiastolicCurrent"`
	DiastolicBPAvg     float64   `json:"bpDiastolicAvg"`
	SpO2Current        float64   `json:"spO2Current"`
	SpO2Avg            float64   `json:"spO2Avg"`
	Timestamp          time.Time `json:"time"`
}
