package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

// API holds the collaborators shared by all handlers. The directory and
// cache are passed in explicitly; nothing here lives in package globals.
type API struct {
	store directory.Store
	cache *telemetry.Cache
	tick  time.Duration
}

// New creates the API surface. tick is the realtime delivery cadence for
// viewer sessions.
func New(store directory.Store, cache *telemetry.Cache, tick time.Duration) *API {
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	return &API{store: store, cache: cache, tick: tick}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// buildBedResponse assembles the aggregate view for one bed. Missing
// patient or snapshot records leave their fields unset.
func (a *API) buildBedResponse(r *http.Request, bed directory.BedAssignment) BedResponse {
	resp := BedResponse{
		BedID:     bed.BedID(),
		BedNo:     bed.BedNo,
		WardNo:    bed.WardNo,
		IPAddress: bed.IPAddress,
	}
	if bed.CurrentPatientID == nil {
		return resp
	}

	patient, err := a.store.GetPatient(r.Context(), *bed.CurrentPatientID)
	if err == nil {
		resp.PatientID = &patient.PatientID
		resp.Name = &patient.Name
		resp.Sex = &patient.Sex
		resp.Age = &patient.Age
		resp.HeartRateMinima = &patient.HeartRateMinima
		resp.HeartRateMaxima = &patient.HeartRateMaxima
		resp.SpO2Minima = &patient.SpO2Minima
		resp.SystolicBPMinima = &patient.SystolicBPMinima
		resp.SystolicBPMaxima = &patient.SystolicBPMaxima
	} else if !errors.Is(err, directory.ErrNotFound) {
		log.Error().Err(err).Str("bedId", resp.BedID).Msg("Patient lookup failed while building bed response")
	}

	snap, err := a.store.GetMedicalSnapshot(r.Context(), *bed.CurrentPatientID)
	if err == nil {
		resp.Time = &snap.Timestamp
		resp.BpmCurrent = &snap.HeartRateCurrent
		resp.BpmAvg = &snap.HeartRateAvg
		resp.BpSystolicCurrent = &snap.SystolicBPCurrent
		resp.BpSystolicAvg = &snap.SystolicBPAvg
		resp.BpDiastolicCurrent = &snap.DiastolicBPCurrent
		resp.BpDiastolicAvg = &snap.DiastolicBPAvg
		resp.SpO2Current = &snap.SpO2Current
		resp.SpO2Avg = &snap.SpO2Avg
	} else if !errors.Is(err, directory.ErrNotFound) {
		log.Error().Err(err).Str("bedId", resp.BedID).Msg("Snapshot lookup failed while building bed response")
	}

	return resp
}

// ListBedsHandler handles GET /beds with an optional ward_number filter.
func (a *API) ListBedsHandler(w http.ResponseWriter, r *http.Request) {
	wardNo := r.URL.Query().Get("ward_number")

	beds, err := a.store.ListBedAssignments(r.Context(), wardNo)
	if err != nil {
		log.Error().Err(err).Str("ward", wardNo).Msg("Failed to list beds")
		writeError(w, http.StatusInternalServerError, "failed to list beds")
		return
	}
	if len(beds) == 0 {
		writeError(w, http.StatusNotFound, "no beds found")
		return
	}

	responses := make([]BedResponse, 0, len(beds))
	for _, bed := range beds {
		responses = append(responses, a.buildBedResponse(r, bed))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetBedHandler handles GET /beds/{bedId}.
func (a *API) GetBedHandler(w http.ResponseWriter, r *http.Request) {
	bedID := mux.Vars(r)["bedId"]

	bed, err := a.store.GetBedAssignmentByID(r.Context(), bedID)
	if errors.Is(err, directory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bed not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("bedId", bedID).Msg("Bed lookup failed")
		writeError(w, http.StatusInternalServerError, "bed lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, a.buildBedResponse(r, bed))
}

// DeletePatientHandler handles DELETE /patients/delete?id=.
func (a *API) DeletePatientHandler(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	err := a.store.DeletePatient(r.Context(), patientID)
	if errors.Is(err, directory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to delete patient")
		writeError(w, http.StatusInternalServerError, "failed to delete patient")
		return
	}

	log.Info().Str("patientId", patientID).Msg("Patient deleted")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Patient Deleted Successfully",
		"status":  "success",
	})
}
