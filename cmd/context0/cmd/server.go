package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CoderCouple/context0"
	"github.com/CoderCouple/context0/memory"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type (
	storeRequest struct {
		Text     string          `json:"text"`
		Metadata memory.Metadata `json:"metadata"`
	}

	searchRequest struct {
		Query   string               `json:"query"`
		Options memory.SearchOptions `json:"options"`
	}

	injectRequest struct {
		Memories []*memory.Memory     `json:"memories"`
		Options  memory.FormatOptions `json:"options"`
	}
)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", "err", err)
	}
}

func createServerHandler(engine *context0.Engine, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/memories", func(w http.ResponseWriter, r *http.Request) {
		var req storeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		memories, err := engine.StoreMemory(r.Context(), req.Text, req.Metadata)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, logger, memories)
	}).Methods("POST")

	router.HandleFunc("/memories", func(w http.ResponseWriter, r *http.Request) {
		memories, err := engine.Store().All(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, memories)
	}).Methods("GET")

	router.HandleFunc("/memories/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		results, err := engine.SearchMemories(r.Context(), req.Query, req.Options)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, results)
	}).Methods("POST")

	router.HandleFunc("/memories/inject", func(w http.ResponseWriter, r *http.Request) {
		var req injectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		block := engine.FormatMemoriesForInjection(req.Memories, req.Options)
		writeJSON(w, logger, map[string]string{"injection": block})
	}).Methods("POST")

	router.HandleFunc("/memories/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted, err := engine.DeleteMemory(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "memory not found", http.StatusNotFound)
			return
		}
		writeJSON(w, logger, map[string]bool{"deleted": true})
	}).Methods("DELETE")

	router.HandleFunc("/memories", func(w http.ResponseWriter, r *http.Request) {
		if err := engine.ClearAllMemories(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, map[string]bool{"cleared": true})
	}).Methods("DELETE")

	router.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		payload, err := engine.ExportAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, payload)
	}).Methods("GET")

	router.HandleFunc("/import", func(w http.ResponseWriter, r *http.Request) {
		var payload context0.ExportPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ok, err := engine.ImportAll(r.Context(), &payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, map[string]bool{"imported": ok})
	}).Methods("POST")

	router.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		settings, err := engine.Settings(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, settings)
	}).Methods("GET")

	router.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		var settings memory.SettingsRecord
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := engine.UpdateSettings(r.Context(), &settings); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, settings)
	}).Methods("PUT")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Warn("failed to write health response", "err", err)
		}
	}).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		router.ServeHTTP(w, r.WithContext(ctx))
	})

	return cors(recovery(handler))
}
