package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/metrics"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Monitors and dashboards connect from anywhere on the ward network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const realtimeWriteTimeout = 5 * time.Second

// RealtimeHandler handles GET /beds/{bedId}/realtime. One long-lived
// websocket per connection, each with its own session in the telemetry
// cache; a slow or dead viewer never affects ingest or other viewers.
func (a *API) RealtimeHandler(w http.ResponseWriter, r *http.Request) {
	bedID := mux.Vars(r)["bedId"]

	// Resolve before upgrading so an unknown bed fails with a plain 404.
	bed, err := a.store.GetBedAssignmentByID(r.Context(), bedID)
	if errors.Is(err, directory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bed not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("bedId", bedID).Msg("Bed lookup failed for realtime session")
		writeError(w, http.StatusInternalServerError, "bed lookup failed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn().Err(err).Str("bedId", bedID).Msg("Websocket upgrade failed")
		return
	}

	sessionID := uuid.NewString()
	log.Info().
		Str("bedId", bedID).
		Str("session", sessionID).
		Msg("Realtime viewer connected")

	a.streamToViewer(conn, bed.Key(), sessionID)
}

// streamToViewer runs the viewer session loop: register, drain both
// waveform queues on every tick, push the snapshot, deregister on any exit
// path.
func (a *API) streamToViewer(conn *websocket.Conn, bed telemetry.BedKey, sessionID string) {
	a.cache.RegisterSession(bed, sessionID)
	metrics.IncRealtimeSessions()

	cause := "client_gone"
	defer func() {
		a.cache.DeregisterSession(bed, sessionID)
		metrics.DecRealtimeSessions(cause)
		conn.Close()
		log.Info().
			Str("bed", bed.String()).
			Str("session", sessionID).
			Str("cause", cause).
			Msg("Realtime viewer disconnected")
	}()

	// Reader goroutine: the client never sends data, but reading is what
	// surfaces close frames and dead connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snapshot := RealtimeSnapshot{
				PPG: a.cache.DrainAndClear(bed, sessionID, telemetry.KindPPG),
				ECG: a.cache.DrainAndClear(bed, sessionID, telemetry.KindECG),
			}
			if snapshot.PPG == nil {
				snapshot.PPG = []float64{}
			}
			if snapshot.ECG == nil {
				snapshot.ECG = []float64{}
			}

			conn.SetWriteDeadline(time.Now().Add(realtimeWriteTimeout))
			if err := conn.WriteJSON(snapshot); err != nil {
				log.Debug().
					Err(err).
					Str("bed", bed.String()).
					Str("session", sessionID).
					Msg("Realtime push failed, closing session")
				return
			}
			metrics.RecordSnapshotPush()
		}
	}
}
