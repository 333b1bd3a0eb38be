package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

// MemoryStore is an in-memory Store used by tests and local development
// runs that have no Couchbase to talk to.
type MemoryStore struct {
	mu        sync.RWMutex
	patients  map[string]Patient
	beds      map[telemetry.BedKey]BedAssignment
	snapshots map[string]MedicalSnapshot
}

// NewMemoryStore creates an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:  make(map[string]Patient),
		beds:      make(map[telemetry.BedKey]BedAssignment),
		snapshots: make(map[string]MedicalSnapshot),
	}
}

func (s *MemoryStore) UpsertPatient(ctx context.Context, p Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[p.PatientID]; ok {
		return nil
	}
	p.Type = DocTypePatient
	s.patients[p.PatientID] = p
	return nil
}

func (s *MemoryStore) GetPatient(ctx context.Context, patientID string) (Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) DeletePatient(ctx context.Context, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patientID]; !ok {
		return ErrNotFound
	}
	delete(s.patients, patientID)
	delete(s.snapshots, patientID)
	for key, bed := range s.beds {
		if bed.CurrentPatientID != nil && *bed.CurrentPatientID == patientID {
			bed.CurrentPatientID = nil
			s.beds[key] = bed
		}
	}
	return nil
}

func (s *MemoryStore) UpsertBedAssignment(ctx context.Context, b BedAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Type = DocTypeBed
	s.beds[b.Key()] = b
	return nil
}

func (s *MemoryStore) GetBedAssignment(ctx context.Context, bed telemetry.BedKey) (BedAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beds[bed]
	if !ok {
		return BedAssignment{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) GetBedAssignmentByID(ctx context.Context, bedID string) (BedAssignment, error) {
	bed, ok := ParseBedID(bedID)
	if !ok {
		return BedAssignment{}, ErrNotFound
	}
	return s.GetBedAssignment(ctx, bed)
}

func (s *MemoryStore) ListBedAssignments(ctx context.Context, wardNo string) ([]BedAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var beds []BedAssignment
	for _, b := range s.beds {
		if wardNo == "" || b.WardNo == wardNo {
			beds = append(beds, b)
		}
	}
	sort.Slice(beds, func(i, j int) bool {
		if beds[i].WardNo != beds[j].WardNo {
			return beds[i].WardNo < beds[j].WardNo
		}
		return beds[i].BedNo < beds[j].BedNo
	})
	return beds, nil
}

func (s *MemoryStore) UpsertMedicalSnapshot(ctx context.Context, snap MedicalSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Type = DocTypeMedical
	s.snapshots[snap.PatientID] = snap
	return nil
}

func (s *MemoryStore) GetMedicalSnapshot(ctx context.Context, patientID string) (MedicalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[patientID]
	if !ok {
		return MedicalSnapshot{}, ErrNotFound
	}
	return snap, nil
}
