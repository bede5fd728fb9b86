package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
)

// handleCommand processes a chat message relayed by the platform connector.
// Messages the bot ignores are answered with 204 No Content.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd bot.Command
	if !s.decode(w, r, &cmd) {
		return
	}

	if cmd.UserID == "" {
		http.Error(w, "Missing user_id", http.StatusBadRequest)
		return
	}

	respondReply(w, s.gateway.HandleCommand(r.Context(), cmd))
}

// handleInteraction processes a button press relayed by the platform connector.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var in bot.Interaction
	if !s.decode(w, r, &in) {
		return
	}

	if in.UserID == "" || in.CustomID == "" {
		http.Error(w, "Missing user_id or custom_id", http.StatusBadRequest)
		return
	}

	respondReply(w, s.gateway.HandleInteraction(r.Context(), in))
}

// decode reads a size-limited JSON body into v and answers 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug().
			Err(err).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Str("path", r.URL.Path).
			Msg("Invalid JSON")

		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}

	return true
}

func respondReply(w http.ResponseWriter, reply *bot.Reply) {
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}
