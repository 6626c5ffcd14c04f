package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"photoscan/internal/api"
	"photoscan/internal/config"
	"photoscan/internal/logging"
	"photoscan/internal/scanner"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mux      *http.ServeMux
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", srv.handleScan)
	mux.HandleFunc("/api/scan/control", srv.handleScanControl)
	mux.HandleFunc("/api/scan/status", srv.handleScanStatus)
	mux.HandleFunc("/api/scan/logs", srv.handleScanLogs)
	mux.HandleFunc("/api/scan/history", srv.handleScanHistory)
	mux.HandleFunc("/api/entities", srv.handleEntities)
	mux.HandleFunc("/api/entities/name", srv.handleEntityRename)
	mux.HandleFunc("/api/entities/", srv.handleEntityDelete)
	mux.HandleFunc("/api/photos/", srv.handlePhotoEntities)
	mux.HandleFunc("/api/duplicates", srv.handleDuplicates)
	mux.HandleFunc("/api/skipped", srv.handleSkipped)
	mux.HandleFunc("/api/status", srv.handleStatus)
	srv.mux = mux

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jobID, err := s.daemon.controller.Start(s.daemon.scanContext(), req.DirectoryPath, req.ForceRescan)
	switch {
	case errors.Is(err, scanner.ErrAlreadyRunning):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scanner.ErrInvalidPath):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusAccepted, api.ScanAccepted{JobID: jobID})
	}
}

func (s *apiServer) handleScanControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ScanControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case api.ActionPause:
		err = s.daemon.controller.Pause()
	case api.ActionResume:
		err = s.daemon.controller.Resume()
	case api.ActionCancel:
		err = s.daemon.controller.Cancel()
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action))
		return
	}
	if errors.Is(err, scanner.ErrInvalidTransition) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromScanStatus(s.daemon.controller.Status()))
}

func (s *apiServer) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromScanStatus(s.daemon.controller.Status()))
}

func (s *apiServer) handleScanLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogsResponse{Events: nil})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events := api.FromLogEvents(hub.Tail(limit))
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Events: events})
}

func (s *apiServer) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.daemon.store.ScanHistory(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScanHistoryResponse{History: api.FromScanHistory(entries)})
}

func (s *apiServer) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summaries, err := s.daemon.store.EntitySummaries(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.EntitiesResponse{Entities: api.FromEntitySummaries(summaries)})
}

func (s *apiServer) handleEntityRename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.RenameEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntityID <= 0 || strings.TrimSpace(req.NewName) == "" {
		s.writeError(w, http.StatusBadRequest, "entity_id and new_name are required")
		return
	}
	if err := s.daemon.registry.Rename(r.Context(), req.EntityID, req.NewName); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *apiServer) handleEntityDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/entities/")
	name, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(name) == "" {
		s.writeError(w, http.StatusBadRequest, "entity name is required")
		return
	}
	deleted, err := s.daemon.registry.DeleteByName(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deleted == 0 {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no entities named %q", name))
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteEntitiesResponse{Deleted: deleted})
}

func (s *apiServer) handlePhotoEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/photos/")
	idStr, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "entities" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	photoID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid photo id")
		return
	}
	photo, err := s.daemon.store.PhotoByID(r.Context(), photoID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if photo == nil {
		s.writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	links, err := s.daemon.store.LinksForPhoto(r.Context(), photoID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.PhotoEntitiesResponse{
		PhotoID:  photoID,
		Entities: api.FromEntityLinks(links),
	})
}

func (s *apiServer) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	groups, err := s.daemon.store.Duplicates(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DuplicatesResponse{Duplicates: api.FromDuplicateGroups(groups)})
}

func (s *apiServer) handleSkipped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	items, err := s.daemon.store.Skipped(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SkippedResponse{Skipped: api.FromSkippedItems(items)})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Scan:         api.FromScanStatus(status.Scan),
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
