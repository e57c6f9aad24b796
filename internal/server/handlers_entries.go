package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"mindwell/internal/sentiment"
	"mindwell/internal/storage"
)

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// --- moods ---

type moodRequest struct {
	Mood      string `json:"mood"`
	Intensity int    `json:"intensity"`
	Notes     string `json:"notes"`
}

type moodResponse struct {
	ID        int64     `json:"id"`
	Mood      string    `json:"mood"`
	Intensity int       `json:"intensity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListMoods(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.MoodEntriesForUser(r.Context(), userID, listLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list moods failed")
		return
	}
	out := make([]moodResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, moodResponse{ID: m.ID, Mood: m.Mood, Intensity: m.Intensity, Notes: m.Notes, CreatedAt: m.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMood(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req moodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Mood == "" {
		writeError(w, http.StatusBadRequest, "mood is required")
		return
	}
	if req.Intensity < 1 || req.Intensity > 10 {
		writeError(w, http.StatusBadRequest, "intensity must be 1-10")
		return
	}
	id, err := s.deps.DB.CreateMoodEntry(r.Context(), storage.MoodEntry{
		UserID:    userID,
		Mood:      req.Mood,
		Intensity: req.Intensity,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create mood failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteMood(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.DB.DeleteMoodEntry(r.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "mood entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete mood failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- journal ---

type journalRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Prompt  string `json:"prompt"`
}

type journalResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Prompt    string    `json:"prompt,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toJournalResponse(j storage.JournalEntry) journalResponse {
	return journalResponse{
		ID:        j.ID,
		Title:     j.Title,
		Content:   j.Content,
		Prompt:    j.Prompt,
		Sentiment: j.Sentiment,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.JournalEntriesForUser(r.Context(), userID, listLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list journal failed")
		return
	}
	out := make([]journalResponse, 0, len(rows))
	for _, j := range rows {
		out = append(out, toJournalResponse(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req journalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	id, err := s.deps.DB.CreateJournalEntry(r.Context(), storage.JournalEntry{
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Prompt:    req.Prompt,
		Sentiment: sentiment.Classify(req.Content),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create journal entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	j, err := s.deps.DB.JournalEntryByID(r.Context(), id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get journal entry failed")
		return
	}
	writeJSON(w, http.StatusOK, toJournalResponse(j))
}

func (s *Server) handleUpdateJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req journalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	// Edited content gets a fresh label.
	err := s.deps.DB.UpdateJournalEntry(r.Context(), storage.JournalEntry{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Prompt:    req.Prompt,
		Sentiment: sentiment.Classify(req.Content),
	})
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update journal entry failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.DB.DeleteJournalEntry(r.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "journal entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete journal entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- goals ---

type goalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	Target      int    `json:"target"`
}

type goalResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	Target      int    `json:"target"`
	Progress    int    `json:"progress"`
	Completed   bool   `json:"completed"`
}

func toGoalResponse(g storage.Goal) goalResponse {
	return goalResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category,
		Frequency:   g.Frequency,
		Target:      g.Target,
		Progress:    g.Progress,
		Completed:   g.Completed,
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.GoalsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list goals failed")
		return
	}
	out := make([]goalResponse, 0, len(rows))
	for _, g := range rows {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "title and category are required")
		return
	}
	if req.Target <= 0 {
		writeError(w, http.StatusBadRequest, "target must be positive")
		return
	}
	freq := req.Frequency
	if freq == "" {
		freq = "daily"
	}
	id, err := s.deps.DB.CreateGoal(r.Context(), storage.Goal{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Frequency:   freq,
		Target:      req.Target,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create goal failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, err := s.deps.DB.GoalByID(r.Context(), id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get goal failed")
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Progress int `json:"progress"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Progress < 0 {
		writeError(w, http.StatusBadRequest, "progress must not be negative")
		return
	}
	if err := s.deps.DB.UpdateGoalProgress(r.Context(), id, userID, req.Progress); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update progress failed")
		return
	}
	g, err := s.deps.DB.GoalByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get goal failed")
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.DB.DeleteGoal(r.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete goal failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- thought records ---

type thoughtRequest struct {
	Situation           string `json:"situation"`
	AutomaticThought    string `json:"automatic_thought"`
	Emotions            string `json:"emotions"`
	EmotionIntensity    int    `json:"emotion_intensity"`
	EvidenceFor         string `json:"evidence_for"`
	EvidenceAgainst     string `json:"evidence_against"`
	AlternativeThought  string `json:"alternative_thought"`
	Outcome             string `json:"outcome"`
	NewEmotionIntensity int    `json:"new_emotion_intensity"`
}

func (s *Server) handleListThoughts(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.ThoughtRecordsForUser(r.Context(), userID, listLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list thought records failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateThought(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req thoughtRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Situation == "" || req.AutomaticThought == "" || req.Emotions == "" {
		writeError(w, http.StatusBadRequest, "situation, automatic_thought and emotions are required")
		return
	}
	id, err := s.deps.DB.CreateThoughtRecord(r.Context(), storage.ThoughtRecord{
		UserID:              userID,
		Situation:           req.Situation,
		AutomaticThought:    req.AutomaticThought,
		Emotions:            req.Emotions,
		EmotionIntensity:    req.EmotionIntensity,
		EvidenceFor:         req.EvidenceFor,
		EvidenceAgainst:     req.EvidenceAgainst,
		AlternativeThought:  req.AlternativeThought,
		Outcome:             req.Outcome,
		NewEmotionIntensity: req.NewEmotionIntensity,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create thought record failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteThought(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.DB.DeleteThoughtRecord(r.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thought record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete thought record failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
