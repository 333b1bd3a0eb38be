package ingest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/metrics"
	"github.com/Caring-Indians-2020/backend-medKit/internal/mqtt"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

// patientDetails payload layout:
// patientId,name,sex,age,sysBPMin,sysBPMax,spo2Min,hrMin,hrMax,ipAddress
const patientDetailsFieldCount = 10

// unassignedPatientID marks a bed announcement without an assigned patient.
const unassignedPatientID = "unknown"

// Drop reasons as they appear on the dropped-events counter.
const (
	dropParseError     = "parse_error"
	dropNoPatient      = "no_patient"
	dropDirectoryError = "directory_error"
)

// Loop routes parsed telemetry events: registrations and scalar vitals to
// the directory, waveform bursts to the telemetry cache. It is the single
// logical consumer of the feed; every failure is local to one event.
type Loop struct {
	store directory.Store
	cache *telemetry.Cache
}

// NewLoop creates an ingest loop over the given directory and cache.
func NewLoop(store directory.Store, cache *telemetry.Cache) *Loop {
	return &Loop{store: store, cache: cache}
}

// Start subscribes the loop to the whole telemetry feed.
func (l *Loop) Start(client *mqtt.Client) error {
	return client.Subscribe("#", 1, l.Handle)
}

// Handle processes one raw feed message. It never returns an error: a bad
// event is dropped and counted, and the loop keeps consuming.
func (l *Loop) Handle(topic string, payload []byte) {
	ev, err := telemetry.ParseTopic(topic, payload)
	if err != nil {
		log.Debug().Err(err).Str("topic", topic).Msg("Dropping unparseable event")
		metrics.RecordDroppedEvent(dropParseError)
		return
	}

	ctx := context.Background()

	switch ev.Parameter {
	case telemetry.ParamPatientDetails:
		l.handlePatientDetails(ctx, ev)
	case telemetry.ParamHeartRate, telemetry.ParamSpO2, telemetry.ParamDiastolicBP, telemetry.ParamSystolicBP:
		l.handleScalarVital(ctx, ev)
	case telemetry.ParamPPG:
		l.handleWaveform(ev, telemetry.KindPPG)
	case telemetry.ParamECG:
		l.handleWaveform(ev, telemetry.KindECG)
	}
}

func (l *Loop) handlePatientDetails(ctx context.Context, ev telemetry.Event) {
	if len(ev.Fields) != patientDetailsFieldCount {
		log.Warn().
			Str("bed", ev.Bed.String()).
			Int("fields", len(ev.Fields)).
			Msg("Dropping patientDetails event with wrong field count")
		metrics.RecordDroppedEvent(dropParseError)
		return
	}

	patientID := strings.TrimSpace(ev.Fields[0])
	assigned := patientID != "" && !strings.EqualFold(patientID, unassignedPatientID)

	if assigned {
		age, err1 := strconv.Atoi(ev.Fields[3])
		sysMin, err2 := strconv.Atoi(ev.Fields[4])
		sysMax, err3 := strconv.Atoi(ev.Fields[5])
		spo2Min, err4 := strconv.Atoi(ev.Fields[6])
		hrMin, err5 := strconv.Atoi(ev.Fields[7])
		hrMax, err6 := strconv.Atoi(ev.Fields[8])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
			log.Warn().
				Str("bed", ev.Bed.String()).
				Str("patientId", patientID).
				Msg("Dropping patientDetails event with non-numeric fields")
			metrics.RecordDroppedEvent(dropParseError)
			return
		}

		patient := directory.Patient{
			PatientID:        patientID,
			Name:             ev.Fields[1],
			Sex:              ev.Fields[2],
			Age:              age,
			SystolicBPMinima: sysMin,
			SystolicBPMaxima: sysMax,
			SpO2Minima:       spo2Min,
			HeartRateMinima:  hrMin,
			HeartRateMaxima:  hrMax,
		}
		if err := l.store.UpsertPatient(ctx, patient); err != nil {
			log.Error().Err(err).Str("patientId", patientID).Msg("Failed to upsert patient")
			metrics.RecordDroppedEvent(dropDirectoryError)
			return
		}
	}

	assignment := directory.BedAssignment{
		WardNo:    ev.Bed.WardNo,
		BedNo:     ev.Bed.BedNo,
		IPAddress: ev.Fields[9],
	}
	if assigned {
		assignment.CurrentPatientID = &patientID
	}
	if err := l.store.UpsertBedAssignment(ctx, assignment); err != nil {
		log.Error().Err(err).Str("bed", ev.Bed.String()).Msg("Failed to upsert bed assignment")
		metrics.RecordDroppedEvent(dropDirectoryError)
		return
	}

	log.Info().
		Str("bed", ev.Bed.String()).
		Str("patientId", patientID).
		Bool("assigned", assigned).
		Msg("Registered bed")
	metrics.RecordIngestEvent(ev.Parameter)
}

func (l *Loop) handleScalarVital(ctx context.Context, ev telemetry.Event) {
	if len(ev.Fields) == 0 {
		metrics.RecordDroppedEvent(dropParseError)
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(ev.Fields[0]), 64)
	if err != nil {
		log.Debug().
			Str("bed", ev.Bed.String()).
			Str("parameter", ev.Parameter).
			Str("value", ev.Fields[0]).
			Msg("Dropping scalar vital with non-numeric value")
		metrics.RecordDroppedEvent(dropParseError)
		return
	}

	assignment, err := l.store.GetBedAssignment(ctx, ev.Bed)
	if errors.Is(err, directory.ErrNotFound) {
		log.Debug().Str("bed", ev.Bed.String()).Msg("Dropping vital for unregistered bed")
		metrics.RecordDroppedEvent(dropNoPatient)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("bed", ev.Bed.String()).Msg("Bed lookup failed")
		metrics.RecordDroppedEvent(dropDirectoryError)
		return
	}
	if assignment.CurrentPatientID == nil {
		log.Debug().Str("bed", ev.Bed.String()).Msg("Dropping vital for bed with no patient")
		metrics.RecordDroppedEvent(dropNoPatient)
		return
	}
	patientID := *assignment.CurrentPatientID

	snap, err := l.store.GetMedicalSnapshot(ctx, patientID)
	if errors.Is(err, directory.ErrNotFound) {
		snap = directory.MedicalSnapshot{PatientID: patientID}
	} else if err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Snapshot lookup failed")
		metrics.RecordDroppedEvent(dropDirectoryError)
		return
	}

	// The feed's "average" has always been the last reading; both fields
	// are overwritten together.
	switch ev.Parameter {
	case telemetry.ParamHeartRate:
		snap.HeartRateCurrent = value
		snap.HeartRateAvg = value
	case telemetry.ParamSpO2:
		snap.SpO2Current = value
		snap.SpO2Avg = value
	case telemetry.ParamDiastolicBP:
		snap.DiastolicBPCurrent = value
		snap.DiastolicBPAvg = value
	case telemetry.ParamSystolicBP:
		snap.SystolicBPCurrent = value
		snap.SystolicBPAvg = value
	}
	snap.Timestamp = time.Now().UTC()

	if err := l.store.UpsertMedicalSnapshot(ctx, snap); err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to persist snapshot")
		metrics.RecordDroppedEvent(dropDirectoryError)
		return
	}
	metrics.RecordIngestEvent(ev.Parameter)
}

func (l *Loop) handleWaveform(ev telemetry.Event, kind telemetry.Kind) {
	samples := make([]float64, 0, len(ev.Fields))
	for _, field := range ev.Fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			log.Debug().
				Str("bed", ev.Bed.String()).
				Str("kind", string(kind)).
				Str("sample", field).
				Msg("Dropping waveform burst with non-numeric sample")
			metrics.RecordDroppedEvent(dropParseError)
			return
		}
		samples = append(samples, v)
	}

	// With no registered sessions this is a no-op; an unwatched bed is the
	// normal state, not an error.
	l.cache.AppendSamples(ev.Bed, kind, samples)
	metrics.RecordIngestEvent(ev.Parameter)
}
