package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

func newTestServer(t *testing.T) (*httptest.Server, *directory.MemoryStore) {
	t.Helper()
	store := directory.NewMemoryStore()
	a := New(store, telemetry.NewCache(0), 50*time.Millisecond)
	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)
	return srv, store
}

func seedBed(t *testing.T, store *directory.MemoryStore, wardNo, bedNo, patientID string) {
	t.Helper()
	ctx := context.Background()

	assignment := directory.BedAssignment{WardNo: wardNo, BedNo: bedNo, IPAddress: "10.0.0.5"}
	if patientID != "" {
		assignment.CurrentPatientID = &patientID
	}
	if err := store.UpsertBedAssignment(ctx, assignment); err != nil {
		t.Fatalf("Failed to seed bed: %v", err)
	}
	if patientID == "" {
		return
	}

	patient := directory.Patient{
		PatientID:        patientID,
		Name:             "John Doe",
		Sex:              "M",
		Age:              45,
		SystolicBPMinima: 100,
		SystolicBPMaxima: 140,
		SpO2Minima:       90,
		HeartRateMinima:  55,
		HeartRateMaxima:  135,
	}
	if err := store.UpsertPatient(ctx, patient); err != nil {
		t.Fatalf("Failed to seed patient: %v", err)
	}
}

func doRequest(t *testing.T, method, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestListBedsEmptyDirectoryReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, "GET", srv.URL+"/beds")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if body["error"] == nil {
		t.Error("Expected error body")
	}
}

func TestListBedsReturnsAllBeds(t *testing.T) {
	srv, store := newTestServer(t)
	seedBed(t, store, "W1", "1", "123458")
	seedBed(t, store, "W1", "2", "")
	seedBed(t, store, "W2", "1", "")

	resp, err := http.Get(srv.URL + "/beds")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var beds []BedResponse
	if err := json.NewDecoder(resp.Body).Decode(&beds); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(beds) != 3 {
		t.Errorf("Expected 3 beds, got %d", len(beds))
	}
}

func TestListBedsFiltersByWard(t *testing.T) {
	srv, store := newTestServer(t)
	seedBed(t, store, "W1", "1", "")
	seedBed(t, store, "W2", "1", "")

	resp, err := http.Get(srv.URL + "/beds?ward_number=W2")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var beds []BedResponse
	if err := json.NewDecoder(resp.Body).Decode(&beds); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(beds) != 1 || beds[0].WardNo != "W2" {
		t.Errorf("Expected only W2 beds, got %+v", beds)
	}
}

func TestGetBedUnknownReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, "GET", srv.URL+"/beds/W9-9")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestGetBedOmitsUnsetPatientFields(t *testing.T) {
	srv, store := newTestServer(t)
	seedBed(t, store, "W1", "2", "")

	resp, body := doRequest(t, "GET", srv.URL+"/beds/W1-2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["bedId"] != "W1-2" || body["wardNo"] != "W1" {
		t.Errorf("Bed fields wrong: %v", body)
	}
	for _, field := range []string{"patientId", "name", "bpmCurrent", "time"} {
		if _, present := body[field]; present {
			t.Errorf("Expected %s to be omitted for empty bed", field)
		}
	}
}

func TestGetBedIncludesPatientAndSnapshot(t *testing.T) {
	srv, store := newTestServer(t)
	seedBed(t, store, "W1", "2", "123458")
	snap := directory.MedicalSnapshot{
		PatientID:        "123458",
		HeartRateCurrent: 72,
		HeartRateAvg:     72,
		SpO2Current:      97,
		Timestamp:        time.Now().UTC(),
	}
	if err := store.UpsertMedicalSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	resp, body := doRequest(t, "GET", srv.URL+"/beds/W1-2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["patientId"] != "123458" || body["name"] != "John Doe" {
		t.Errorf("Patient fields wrong: %v", body)
	}
	if body["bpmCurrent"] != 72.0 || body["spO2Current"] != 97.0 {
		t.Errorf("Snapshot fields wrong: %v", body)
	}
	if body["time"] == nil {
		t.Error("Expected snapshot time to be set")
	}
}

func TestDeletePatient(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "Missing id", query: "", wantStatus: http.StatusBadRequest},
		{name: "Unknown patient", query: "?id=999999", wantStatus: http.StatusNotFound},
		{name: "Existing patient", query: "?id=123458", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t)
			seedBed(t, store, "W1", "2", "123458")

			resp, body := doRequest(t, "DELETE", srv.URL+"/patients/delete"+tt.query)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			if body["status"] != "success" {
				t.Errorf("Expected success body, got %v", body)
			}
			ctx := context.Background()
			if _, err := store.GetPatient(ctx, "123458"); !errors.Is(err, directory.ErrNotFound) {
				t.Errorf("Expected patient gone, got %v", err)
			}
			bed, err := store.GetBedAssignment(ctx, telemetry.BedKey{WardNo: "W1", BedNo: "2"})
			if err != nil {
				t.Fatalf("Expected bed to remain, got %v", err)
			}
			if bed.CurrentPatientID != nil {
				t.Errorf("Expected bed assignment cleared, got %v", *bed.CurrentPatientID)
			}
		})
	}
}
