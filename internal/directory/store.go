package directory

import (
	"context"
	"errors"

	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

// ErrNotFound is returned when a requested directory record does not exist.
var ErrNotFound = errors.New("directory: record not found")

// Store is the patient/bed directory consulted on registration and bed
// lookups. It is never on the waveform streaming hot path.
type Store interface {
	// UpsertPatient stores the patient if the patientId is unseen. A benign
	// re-announcement of an already registered patient keeps the stored
	// record untouched.
	UpsertPatient(ctx context.Context, p Patient) error
	GetPatient(ctx context.Context, patientID string) (Patient, error)
	// DeletePatient removes the patient, its medical snapshot and clears
	// any bed assignment pointing at it.
	DeletePatient(ctx context.Context, patientID string) error

	// UpsertBedAssignment creates or overwrites the single assignment
	// record for the bed.
	UpsertBedAssignment(ctx context.Context, b BedAssignment) error
	GetBedAssignment(ctx context.Context, bed telemetry.BedKey) (BedAssignment, error)
	// GetBedAssignmentByID resolves the external "<ward>-<bed>" identifier.
	GetBedAssignmentByID(ctx context.Context, bedID string) (BedAssignment, error)
	// ListBedAssignments returns all beds, optionally filtered by ward.
	ListBedAssignments(ctx context.Context, wardNo string) ([]BedAssignment, error)

	UpsertMedicalSnapshot(ctx context.Context, s MedicalSnapshot) error
	GetMedicalSnapshot(ctx context.Context, patientID string) (MedicalSnapshot, error)
}
