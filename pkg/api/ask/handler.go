// Package ask provides the HTTP handlers for question answering.
package ask

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"asksec/pkg/core/rag"
	"asksec/pkg/core/utils"
)

// EngineFactory builds a fresh query engine for a new session. Each session
// gets its own engine so conversation logs stay isolated.
type EngineFactory func() *rag.Engine

// Handler serves /api/ask and /api/session/clear. Engines themselves are
// single-threaded by contract; the handler's lock serializes access to them.
type Handler struct {
	newEngine EngineFactory

	mu       sync.Mutex
	sessions map[string]*rag.Engine
}

// NewHandler creates a handler backed by the engine factory.
func NewHandler(factory EngineFactory) *Handler {
	return &Handler{
		newEngine: factory,
		sessions:  make(map[string]*rag.Engine),
	}
}

// AskRequest is the query payload.
type AskRequest struct {
	Question   string `json:"question"`
	Ticker     string `json:"ticker,omitempty"`
	K          int    `json:"k,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Structured bool   `json:"structured,omitempty"`
}

// AskResponse is the query result plus session bookkeeping and a rendered
// HTML version of the answer for UI consumers.
type AskResponse struct {
	Answer            string         `json:"answer"`
	AnswerHTML        string         `json:"answer_html,omitempty"`
	Sources           []rag.Citation `json:"sources"`
	NumSources        int            `json:"num_sources"`
	SessionID         string         `json:"session_id"`
	Confidence        *float64       `json:"confidence,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleAsk answers one question within a session.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, engine := h.session(req.SessionID)

	resp := AskResponse{SessionID: sessionID}

	h.mu.Lock()
	var err error
	if req.Structured {
		var result *rag.StructuredResult
		result, err = engine.AnswerStructured(r.Context(), req.Question, req.Ticker, req.K)
		if err == nil {
			resp.Answer = result.Answer
			resp.Sources = result.Sources
			resp.NumSources = result.NumSources
			resp.Confidence = &result.Confidence
			resp.FollowUpQuestions = result.FollowUpQuestions
		}
	} else {
		var result *rag.QueryResult
		result, err = engine.Answer(r.Context(), req.Question, req.Ticker, req.K)
		if err == nil {
			resp.Answer = result.Answer
			resp.Sources = result.Sources
			resp.NumSources = result.NumSources
		}
	}
	h.mu.Unlock()

	if err != nil {
		if errors.Is(err, rag.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Retrieval failure: the index is unavailable, nothing to answer from.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if html, err := utils.RenderHTML(utils.CleanMarkdown(resp.Answer)); err == nil {
		resp.AnswerHTML = html
	}

	json.NewEncoder(w).Encode(resp)
}

// HandleClearSession drops a session's conversation log.
func (h *Handler) HandleClearSession(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if engine, ok := h.sessions[req.SessionID]; ok {
		engine.ClearHistory()
	}
	h.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// session returns the engine for id, creating a new session when id is empty
// or unknown.
func (h *Handler) session(id string) (string, *rag.Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id != "" {
		if engine, ok := h.sessions[id]; ok {
			return id, engine
		}
	}
	id = uuid.New().String()
	engine := h.newEngine()
	h.sessions[id] = engine
	return id, engine
}
