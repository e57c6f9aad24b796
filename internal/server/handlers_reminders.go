package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/schedule"
	"mindwell/internal/scheduler"
	"mindwell/internal/storage"
)

type reminderRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Time    string `json:"time"` // "HH:MM"
	Days    []int  `json:"days"` // time.Weekday values, empty means every day
	Active  *bool  `json:"active"`
}

type reminderResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind"`
	Time    string `json:"time"`
	Days    []int  `json:"days"`
	Active  bool   `json:"active"`
	NextAt  string `json:"next_at,omitempty"`
}

func toReminderResponse(r storage.Reminder, now time.Time) reminderResponse {
	resp := reminderResponse{
		ID:      r.ID,
		Title:   r.Title,
		Message: r.Message,
		Kind:    r.Kind,
		Time:    clockString(r.Hour, r.Minute),
		Days:    dayList(r.Days),
		Active:  r.Active,
	}
	if rule, err := r.Rule(); err == nil && r.Active {
		resp.NextAt = schedule.NextOccurrence(rule, now).Format(time.RFC3339)
	}
	return resp
}

func clockString(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func dayList(ds schedule.DaySet) []int {
	out := []int{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if ds.Has(d) {
			out = append(out, int(d))
		}
	}
	return out
}

func daySetFrom(days []int) (schedule.DaySet, bool) {
	var ds schedule.DaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, false
		}
		ds = ds.With(time.Weekday(d))
	}
	return ds, true
}

// parseReminderRequest validates the payload into a storage row. The
// rule is validated eagerly so invalid clock values never persist.
func parseReminderRequest(req reminderRequest, userID int64) (storage.Reminder, string) {
	if req.Title == "" {
		return storage.Reminder{}, "title is required"
	}
	hour, minute, err := schedule.ParseClock(req.Time)
	if err != nil {
		return storage.Reminder{}, "invalid time, expected HH:MM"
	}
	days, ok := daySetFrom(req.Days)
	if !ok {
		return storage.Reminder{}, "days must be 0 (Sunday) through 6 (Saturday)"
	}
	kind := req.Kind
	if kind == "" {
		kind = "custom"
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	row := storage.Reminder{
		UserID:  userID,
		Title:   req.Title,
		Message: req.Message,
		Kind:    kind,
		Hour:    hour,
		Minute:  minute,
		Days:    days,
		Active:  active,
	}
	if _, err := row.Rule(); err != nil {
		return storage.Reminder{}, "invalid recurrence rule"
	}
	return row, ""
}

func definitionFrom(r storage.Reminder) (scheduler.Definition, error) {
	rule, err := r.Rule()
	if err != nil {
		return scheduler.Definition{}, err
	}
	return scheduler.Definition{
		ID:      r.ID,
		UserID:  r.UserID,
		Title:   r.Title,
		Message: r.Message,
		Kind:    r.Kind,
		Rule:    rule,
		Active:  r.Active,
	}, nil
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.RemindersForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list reminders failed")
		return
	}
	now := time.Now()
	out := make([]reminderResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toReminderResponse(row, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req reminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	row, msg := parseReminderRequest(req, userID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	id, err := s.deps.DB.CreateReminder(r.Context(), row)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create reminder failed")
		return
	}
	row.ID = id

	if s.deps.Sched != nil {
		if def, err := definitionFrom(row); err == nil {
			s.deps.Sched.Schedule(def)
		}
	}
	writeJSON(w, http.StatusCreated, toReminderResponse(row, time.Now()))
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := s.deps.DB.ReminderByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && row.UserID != userID) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get reminder failed")
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(row, time.Now()))
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	row, msg := parseReminderRequest(req, userID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	row.ID = id
	if err := s.deps.DB.UpdateReminder(r.Context(), row); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update reminder failed")
		return
	}

	// Re-arm with the new rule; deactivation cancels inside Schedule.
	if s.deps.Sched != nil {
		if def, err := definitionFrom(row); err == nil {
			s.deps.Sched.Schedule(def)
		}
	}
	writeJSON(w, http.StatusOK, toReminderResponse(row, time.Now()))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.DB.DeleteReminder(r.Context(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete reminder failed")
		return
	}
	if s.deps.Sched != nil {
		s.deps.Sched.CancelReminder(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
