package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/couchbase"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

func patientDocID(patientID string) string {
	return "patient::" + patientID
}

func bedDocID(bed telemetry.BedKey) string {
	return "bed::" + bed.WardNo + "::" + bed.BedNo
}

func medicalDocID(patientID string) string {
	return "medical::" + patientID
}

// CouchbaseStore implements Store on top of the couchbase document client.
type CouchbaseStore struct {
	db *couchbase.Client
}

// NewCouchbaseStore creates a directory store backed by Couchbase.
func NewCouchbaseStore(db *couchbase.Client) *CouchbaseStore {
	return &CouchbaseStore{db: db}
}

// UpsertPatient stores the patient if unseen; an existing record wins.
func (s *CouchbaseStore) UpsertPatient(ctx context.Context, p Patient) error {
	var existing Patient
	err := s.db.GetDocument(patientDocID(p.PatientID), &existing)
	if err == nil {
		// Re-announcement of a known patient; keep the stored record.
		log.Debug().Str("patientId", p.PatientID).Msg("Patient already registered, keeping existing record")
		return nil
	}
	if !errors.Is(err, couchbase.ErrDocumentNotFound) {
		return fmt.Errorf("patient lookup before upsert: %w", err)
	}

	p.Type = DocTypePatient
	return s.db.UpsertDocument(patientDocID(p.PatientID), p)
}

func (s *CouchbaseStore) GetPatient(ctx context.Context, patientID string) (Patient, error) {
	var p Patient
	err := s.db.GetDocument(patientDocID(patientID), &p)
	if errors.Is(err, couchbase.ErrDocumentNotFound) {
		return Patient{}, ErrNotFound
	}
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *CouchbaseStore) DeletePatient(ctx context.Context, patientID string) error {
	err := s.db.DeleteDocument(patientDocID(patientID))
	if errors.Is(err, couchbase.ErrDocumentNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	// The snapshot may not exist yet for a patient that never sent vitals.
	if err := s.db.DeleteDocument(medicalDocID(patientID)); err != nil &&
		!errors.Is(err, couchbase.ErrDocumentNotFound) {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to delete medical snapshot")
	}

	// Clear any bed still pointing at the deleted patient.
	beds, err := s.ListBedAssignments(ctx, "")
	if err != nil {
		return fmt.Errorf("listing beds after patient delete: %w", err)
	}
	for _, bed := range beds {
		if bed.CurrentPatientID != nil && *bed.CurrentPatientID == patientID {
			bed.CurrentPatientID = nil
			if err := s.UpsertBedAssignment(ctx, bed); err != nil {
				return fmt.Errorf("clearing assignment for bed %s: %w", bed.BedID(), err)
			}
		}
	}
	return nil
}

func (s *CouchbaseStore) UpsertBedAssignment(ctx context.Context, b BedAssignment) error {
	b.Type = DocTypeBed
	return s.db.UpsertDocument(bedDocID(b.Key()), b)
}

func (s *CouchbaseStore) GetBedAssignment(ctx context.Context, bed telemetry.BedKey) (BedAssignment, error) {
	var b BedAssignment
	err := s.db.GetDocument(bedDocID(bed), &b)
	if errors.Is(err, couchbase.ErrDocumentNotFound) {
		return BedAssignment{}, ErrNotFound
	}
	if err != nil {
		return BedAssignment{}, err
	}
	return b, nil
}

func (s *CouchbaseStore) GetBedAssignmentByID(ctx context.Context, bedID string) (BedAssignment, error) {
	bed, ok := ParseBedID(bedID)
	if !ok {
		return BedAssignment{}, ErrNotFound
	}
	return s.GetBedAssignment(ctx, bed)
}

func (s *CouchbaseStore) ListBedAssignments(ctx context.Context, wardNo string) ([]BedAssignment, error) {
	statement := "WHERE b.type = $type ORDER BY b.wardNo, b.bedNo"
	params := map[string]interface{}{"type": DocTypeBed}
	if wardNo != "" {
		statement = "WHERE b.type = $type AND b.wardNo = $ward ORDER BY b.bedNo"
		params["ward"] = wardNo
	}

	rows, err := s.db.Query(statement, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []BedAssignment
	for rows.Next() {
		var b BedAssignment
		if err := rows.Row(&b); err != nil {
			return nil, fmt.Errorf("decoding bed row: %w", err)
		}
		beds = append(beds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating beds: %w", err)
	}
	return beds, nil
}

func (s *CouchbaseStore) UpsertMedicalSnapshot(ctx context.Context, snap MedicalSnapshot) error {
	snap.Type = DocTypeMedical
	return s.db.UpsertDocument(medicalDocID(snap.PatientID), snap)
}

func (s *CouchbaseStore) GetMedicalSnapshot(ctx context.Context, patientID string) (MedicalSnapshot, error) {
	var snap MedicalSnapshot
	err := s.db.GetDocument(medicalDocID(patientID), &snap)
	if errors.Is(err, couchbase.ErrDocumentNotFound) {
		return MedicalSnapshot{}, ErrNotFound
	}
	if err != nil {
		return MedicalSnapshot{}, err
	}
	return snap, nil
}

// ParseBedID splits the external "<ward>-<bed>" identifier. The bed number
// is the segment after the last dash, so dashes in ward names survive.
func ParseBedID(bedID string) (telemetry.BedKey, bool) {
	i := strings.LastIndex(bedID, "-")
	if i <= 0 || i == len(bedID)-1 {
		return telemetry.BedKey{}, false
	}
	return telemetry.BedKey{WardNo: bedID[:i], BedNo: bedID[i+1:]}, true
}
