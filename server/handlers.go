package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/xhad/sage/pkg/kb"
	"github.com/xhad/sage/pkg/search"
	"go.uber.org/zap"
)

type ingestRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type searchRequest struct {
	Q string `json:"q"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.kb.Ingest(r.Context(), req.Text, req.Source)
	if err != nil {
		if errors.Is(err, kb.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, "provide some text to ingest")
			return
		}
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"docsCount":   result.DocsCount,
		"chunksCount": result.ChunksCount,
		"source":      result.Source,
	})
}

func (s *Server) handleQueryKB(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if utf8.RuneCountInString(req.Query) < 5 {
		s.respondError(w, http.StatusBadRequest, "please provide a valid query")
		return
	}
	if req.K < 0 || req.K > 10 {
		s.respondError(w, http.StatusBadRequest, "k must be between 1 and 10")
		return
	}

	answer, err := s.kb.Ask(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, kb.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, "please provide a valid query")
			return
		}
		s.logger.Error("kb query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleResetKB(w http.ResponseWriter, r *http.Request) {
	s.kb.Reset()
	s.respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.search.Run(r.Context(), req.Q)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrQueryTooShort):
			s.respondError(w, http.StatusBadRequest, "please ask a valid question and be specific")
		case errors.Is(err, search.ErrRepairFailed):
			s.logger.Error("search answer unrepairable", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, "answer failed validation")
		default:
			s.logger.Error("search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "search failed")
		}
		return
	}

	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
