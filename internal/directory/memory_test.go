package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

func TestUpsertPatientKeepsExistingRecord(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := Patient{PatientID: "123458", Name: "John Doe", Age: 45}
	if err := store.UpsertPatient(ctx, first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// A benign re-announcement must not clobber the stored record.
	second := Patient{PatientID: "123458", Name: "J. Doe", Age: 0}
	if err := store.UpsertPatient(ctx, second); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := store.GetPatient(ctx, "123458")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Name != "John Doe" || got.Age != 45 {
		t.Errorf("Existing patient was overwritten: %+v", got)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetPatient(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBedAssignmentUpsertOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	bed := telemetry.BedKey{WardNo: "W1", BedNo: "2"}

	patientID := "123458"
	if err := store.UpsertBedAssignment(ctx, BedAssignment{
		WardNo: "W1", BedNo: "2", CurrentPatientID: &patientID, IPAddress: "10.0.0.5",
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Re-announcement without a patient clears the assignment in place.
	if err := store.UpsertBedAssignment(ctx, BedAssignment{
		WardNo: "W1", BedNo: "2", IPAddress: "10.0.0.6",
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := store.GetBedAssignment(ctx, bed)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.CurrentPatientID != nil {
		t.Errorf("Expected cleared patient, got %v", *got.CurrentPatientID)
	}
	if got.IPAddress != "10.0.0.6" {
		t.Errorf("Expected updated ip, got %s", got.IPAddress)
	}
}

func TestDeletePatientClearsAssignmentAndSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	patientID := "123458"

	store.UpsertPatient(ctx, Patient{PatientID: patientID})
	store.UpsertBedAssignment(ctx, BedAssignment{WardNo: "W1", BedNo: "2", CurrentPatientID: &patientID})
	store.UpsertMedicalSnapshot(ctx, MedicalSnapshot{PatientID: patientID, HeartRateCurrent: 72})

	if err := store.DeletePatient(ctx, patientID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := store.GetPatient(ctx, patientID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected patient gone, got %v", err)
	}
	if _, err := store.GetMedicalSnapshot(ctx, patientID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected snapshot gone, got %v", err)
	}
	bed, err := store.GetBedAssignment(ctx, telemetry.BedKey{WardNo: "W1", BedNo: "2"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if bed.CurrentPatientID != nil {
		t.Errorf("Expected assignment cleared, got %v", *bed.CurrentPatientID)
	}
}

func TestDeletePatientNotFound(t *testing.T) {
	store := NewMemoryStore()
	if err := store.DeletePatient(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListBedAssignmentsFiltersByWard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.UpsertBedAssignment(ctx, BedAssignment{WardNo: "W1", BedNo: "2"})
	store.UpsertBedAssignment(ctx, BedAssignment{WardNo: "W1", BedNo: "1"})
	store.UpsertBedAssignment(ctx, BedAssignment{WardNo: "W2", BedNo: "7"})

	all, err := store.ListBedAssignments(ctx, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 beds, got %d", len(all))
	}

	w1, err := store.ListBedAssignments(ctx, "W1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(w1) != 2 {
		t.Fatalf("Expected 2 beds in W1, got %d", len(w1))
	}
	if w1[0].BedNo != "1" || w1[1].BedNo != "2" {
		t.Errorf("Expected beds sorted by bed number, got %+v", w1)
	}
}

func TestParseBedID(t *testing.T) {
	tests := []struct {
		name     string
		bedID    string
		expected telemetry.BedKey
		ok       bool
	}{
		{
			name:     "Simple id",
			bedID:    "W1-2",
			expected: telemetry.BedKey{WardNo: "W1", BedNo: "2"},
			ok:       true,
		},
		{
			name:     "Ward name containing a dash",
			bedID:    "ICU-East-14",
			expected: telemetry.BedKey{WardNo: "ICU-East", BedNo: "14"},
			ok:       true,
		},
		{
			name:  "No separator",
			bedID: "W12",
			ok:    false,
		},
		{
			name:  "Trailing separator",
			bedID: "W1-",
			ok:    false,
		},
		{
			name:  "Empty",
			bedID: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBedID(tt.bedID)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}
