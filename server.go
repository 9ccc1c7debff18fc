package main

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type api struct {
	store      *Store
	visibility *Visibility
	stats      *FeedStats
	hub        *wsHub
	interval   time.Duration
	now        func() time.Time
}

func registerRoutes(mux *http.ServeMux, a *api, staticDir string) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/vehicles", a.handleVehicles)
	mux.HandleFunc("GET /api/positions", a.handlePositions)
	mux.HandleFunc("GET /api/visibility", a.handleGetVisibility)
	mux.HandleFunc("PUT /api/visibility", a.handleSetVisibility)
	mux.HandleFunc("GET /gtfs-rt/vehicle-positions.pb", a.handleGtfsRt)

	mux.HandleFunc("/data.json", a.hub.handleWebSocket)

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		mux.Handle("/", withLogging(fs))
	}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Vehicles int               `json:"vehicles"`
	Visible  bool              `json:"visible"`
	Clients  int               `json:"clients"`
	Feed     FeedStatsSnapshot `json:"feed"`
}

// handleHealth reports "stale" when the app is visible but the feed has not
// been read successfully for three intervals.
func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	feed := a.stats.Snapshot()
	visible := a.visibility.Visible()
	status := "ok"
	if visible && feed.Ticks > 0 && a.now().Sub(feed.LastSuccess) > 3*a.interval {
		status = "stale"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   status,
		Vehicles: a.store.Len(),
		Visible:  visible,
		Clients:  a.hub.count(),
		Feed:     feed,
	})
}

func (a *api) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sortedVehicles(a.store.Snapshot()))
}

func (a *api) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sortedLatest(a.store.Latest()))
}

type visibilityBody struct {
	Visible *bool `json:"visible"`
}

func (a *api) handleGetVisibility(w http.ResponseWriter, r *http.Request) {
	v := a.visibility.Visible()
	writeJSON(w, http.StatusOK, visibilityBody{Visible: &v})
}

func (a *api) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var body visibilityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Visible == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `expected {"visible": true|false}`})
		return
	}
	if a.visibility.Set(*body.Visible) {
		log.WithField("visible", *body.Visible).Info("visibility changed")
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *api) handleGtfsRt(w http.ResponseWriter, r *http.Request) {
	data, err := encodeFeedMessage(sortedLatest(a.store.Latest()), a.now())
	if err != nil {
		log.WithError(err).Error("encode gtfs-rt feed")
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}
