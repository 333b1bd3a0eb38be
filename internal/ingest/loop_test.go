package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

func newTestLoop() (*Loop, *directory.MemoryStore, *telemetry.Cache) {
	store := directory.NewMemoryStore()
	cache := telemetry.NewCache(0)
	return NewLoop(store, cache), store, cache
}

func TestPatientDetailsRegistersPatientAndBed(t *testing.T) {
	loop, store, _ := newTestLoop()
	ctx := context.Background()

	loop.Handle("W1/2/patientDetails", []byte("123458,John Doe,M,45,100,140,90,55,135,10.0.0.5"))

	bed, err := store.GetBedAssignment(ctx, telemetry.BedKey{WardNo: "W1", BedNo: "2"})
	if err != nil {
		t.Fatalf("Expected bed assignment, got error: %v", err)
	}
	if bed.CurrentPatientID == nil || *bed.CurrentPatientID != "123458" {
		t.Errorf("Expected currentPatientId 123458, got %v", bed.CurrentPatientID)
	}
	if bed.IPAddress != "10.0.0.5" {
		t.Errorf("Expected ip 10.0.0.5, got %s", bed.IPAddress)
	}

	patient, err := store.GetPatient(ctx, "123458")
	if err != nil {
		t.Fatalf("Expected patient, got error: %v", err)
	}
	if patient.Name != "John Doe" {
		t.Errorf("Expected name John Doe, got %s", patient.Name)
	}
	if patient.Age != 45 || patient.SystolicBPMinima != 100 || patient.SystolicBPMaxima != 140 ||
		patient.SpO2Minima != 90 || patient.HeartRateMinima != 55 || patient.HeartRateMaxima != 135 {
		t.Errorf("Thresholds mapped wrong: %+v", patient)
	}
}

func TestPatientDetailsUnknownPatient(t *testing.T) {
	tests := []struct {
		name      string
		patientID string
	}{
		{name: "Literal unknown", patientID: "unknown"},
		{name: "Mixed case unknown", patientID: "UnKnOwN"},
		{name: "Empty id", patientID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop, store, _ := newTestLoop()
			ctx := context.Background()

			loop.Handle("W1/2/patientDetails", []byte(tt.patientID+",John Doe,M,45,100,140,90,55,135,10.0.0.5"))

			bed, err := store.GetBedAssignment(ctx, telemetry.BedKey{WardNo: "W1", BedNo: "2"})
			if err != nil {
				t.Fatalf("Expected bed assignment, got error: %v", err)
			}
			if bed.CurrentPatientID != nil {
				t.Errorf("Expected nil currentPatientId, got %v", *bed.CurrentPatientID)
			}
			if tt.patientID != "" {
				if _, err := store.GetPatient(ctx, tt.patientID); !errors.Is(err, directory.ErrNotFound) {
					t.Errorf("Expected no patient row, got %v", err)
				}
			}
		})
	}
}

func TestPatientDetailsMalformedDropped(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "Wrong field count", payload: "123458,John Doe,M,45"},
		{name: "Non-numeric age", payload: "123458,John Doe,M,old,100,140,90,55,135,10.0.0.5"},
		{name: "Non-numeric threshold", payload: "123458,John Doe,M,45,low,140,90,55,135,10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop, store, _ := newTestLoop()
			ctx := context.Background()

			loop.Handle("W1/2/patientDetails", []byte(tt.payload))

			if _, err := store.GetPatient(ctx, "123458"); !errors.Is(err, directory.ErrNotFound) {
				t.Errorf("Expected no patient row, got %v", err)
			}
			if _, err := store.GetBedAssignment(ctx, telemetry.BedKey{WardNo: "W1", BedNo: "2"}); !errors.Is(err, directory.ErrNotFound) {
				t.Errorf("Expected no bed assignment, got %v", err)
			}
		})
	}
}

func TestScalarVitalUpdatesSnapshot(t *testing.T) {
	loop, store, _ := newTestLoop()
	ctx := context.Background()

	loop.Handle("W1/2/patientDetails", []byte("123458,John Doe,M,45,100,140,90,55,135,10.0.0.5"))
	loop.Handle("W1/2/HR", []byte("72"))
	loop.Handle("W1/2/sysBP", []byte("118"))
	loop.Handle("W1/2/diaBP", []byte("76"))
	loop.Handle("W1/2/spO2", []byte("97"))

	snap, err := store.GetMedicalSnapshot(ctx, "123458")
	if err != nil {
		t.Fatalf("Expected snapshot, got error: %v", err)
	}
	if snap.HeartRateCurrent != 72 || snap.HeartRateAvg != 72 {
		t.Errorf("HR not recorded: %+v", snap)
	}
	if snap.SystolicBPCurrent != 118 || snap.DiastolicBPCurrent != 76 || snap.SpO2Current != 97 {
		t.Errorf("Vitals not recorded: %+v", snap)
	}
	if snap.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	// A newer reading overwrites both current and average.
	loop.Handle("W1/2/HR", []byte("80"))
	snap, _ = store.GetMedicalSnapshot(ctx, "123458")
	if snap.HeartRateCurrent != 80 || snap.HeartRateAvg != 80 {
		t.Errorf("Expected HR overwrite to 80, got %+v", snap)
	}
}

func TestScalarVitalWithoutPatientDropped(t *testing.T) {
	loop, store, _ := newTestLoop()
	ctx := context.Background()

	// Unregistered bed.
	loop.Handle("W1/2/HR", []byte("72"))
	if _, err := store.GetMedicalSnapshot(ctx, "123458"); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Expected no snapshot, got %v", err)
	}

	// Registered bed with no assigned patient.
	loop.Handle("W1/2/patientDetails", []byte("unknown,,,0,0,0,0,0,0,10.0.0.5"))
	loop.Handle("W1/2/HR", []byte("72"))
	if _, err := store.GetMedicalSnapshot(ctx, "unknown"); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("Expected no snapshot for unassigned bed, got %v", err)
	}
}

func TestWaveformWithoutSessionIsDiscarded(t *testing.T) {
	loop, _, cache := newTestLoop()
	bed := telemetry.BedKey{WardNo: "W1", BedNo: "2"}

	// No error, no queue created.
	loop.Handle("W1/2/ppg", []byte("60,61,62"))

	if n := cache.Sessions(bed); n != 0 {
		t.Errorf("Expected no sessions, got %d", n)
	}
}

func TestWaveformFansOutToRegisteredSession(t *testing.T) {
	loop, _, cache := newTestLoop()
	bed := telemetry.BedKey{WardNo: "W1", BedNo: "2"}
	cache.RegisterSession(bed, "S1")

	loop.Handle("W1/2/ppg", []byte("60,61,62"))
	loop.Handle("W1/2/ppg", []byte("63"))

	got := cache.DrainAndClear(bed, "S1", telemetry.KindPPG)
	if !reflect.DeepEqual(got, []float64{60, 61, 62, 63}) {
		t.Errorf("Expected [60 61 62 63], got %v", got)
	}
	if again := cache.DrainAndClear(bed, "S1", telemetry.KindPPG); len(again) != 0 {
		t.Errorf("Expected empty second drain, got %v", again)
	}
}

func TestWaveformKindsRouteSeparately(t *testing.T) {
	loop, _, cache := newTestLoop()
	bed := telemetry.BedKey{WardNo: "W1", BedNo: "2"}
	cache.RegisterSession(bed, "S1")

	loop.Handle("W1/2/ppg", []byte("60"))
	loop.Handle("W1/2/ecg", []byte("81,82"))

	if got := cache.DrainAndClear(bed, "S1", telemetry.KindECG); !reflect.DeepEqual(got, []float64{81, 82}) {
		t.Errorf("Expected [81 82], got %v", got)
	}
	if got := cache.DrainAndClear(bed, "S1", telemetry.KindPPG); !reflect.DeepEqual(got, []float64{60}) {
		t.Errorf("Expected [60], got %v", got)
	}
}

func TestMalformedEventsNeverStopTheLoop(t *testing.T) {
	loop, store, cache := newTestLoop()
	bed := telemetry.BedKey{WardNo: "W1", BedNo: "2"}
	cache.RegisterSession(bed, "S1")

	loop.Handle("garbage", []byte("1,2,3"))
	loop.Handle("W1/2/unsupported", []byte("1"))
	loop.Handle("W1/2/ppg", []byte("60,not-a-number"))
	loop.Handle("W1/2/HR", []byte("fast"))

	// The loop keeps working after each bad event.
	loop.Handle("W1/2/patientDetails", []byte("123458,John Doe,M,45,100,140,90,55,135,10.0.0.5"))
	loop.Handle("W1/2/ppg", []byte("60,61"))

	if _, err := store.GetPatient(context.Background(), "123458"); err != nil {
		t.Errorf("Expected patient registered after bad events, got %v", err)
	}
	got := cache.DrainAndClear(bed, "S1", telemetry.KindPPG)
	if !reflect.DeepEqual(got, []float64{60, 61}) {
		t.Errorf("Expected [60 61] (malformed burst dropped whole), got %v", got)
	}
}
