package server

import (
	"errors"
	"net/http"

	"mindwell/internal/chat"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Topic string `json:"topic"`
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	topic, reply, err := s.deps.Bot.Reply(userID, req.Message)
	if errors.Is(err, chat.ErrRateLimited) {
		writeError(w, http.StatusTooManyRequests, "slow down a little")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}
	if topic == chat.TopicCrisis && s.deps.Metrics != nil {
		s.deps.Metrics.crisisReplies.Inc()
	}
	writeJSON(w, http.StatusOK, chatResponse{Topic: string(topic), Reply: reply})
}
