package server

import (
	"net/http"
	"time"
)

// The dashboard mirrors the home screen: mood distribution over the
// last 30 days and a handful of goals with their progress.
const (
	dashboardWindowDays = 30
	dashboardGoalCap    = 5
)

type dashboardGoal struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Progress  int    `json:"progress"`
	Target    int    `json:"target"`
	Completed bool   `json:"completed"`
}

type dashboardResponse struct {
	PeriodDays int             `json:"period_days"`
	MoodCounts map[string]int  `json:"mood_counts"`
	Goals      []dashboardGoal `json:"goals"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	since := time.Now().AddDate(0, 0, -dashboardWindowDays)
	counts, err := s.deps.DB.MoodCountsSince(r.Context(), userID, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load mood summary failed")
		return
	}

	goals, err := s.deps.DB.GoalsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load goals failed")
		return
	}
	if len(goals) > dashboardGoalCap {
		goals = goals[:dashboardGoalCap]
	}
	out := make([]dashboardGoal, 0, len(goals))
	for _, g := range goals {
		out = append(out, dashboardGoal{
			ID:        g.ID,
			Title:     g.Title,
			Progress:  g.Progress,
			Target:    g.Target,
			Completed: g.Completed,
		})
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		PeriodDays: dashboardWindowDays,
		MoodCounts: counts,
		Goals:      out,
	})
}
