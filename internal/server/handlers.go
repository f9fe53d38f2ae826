package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sourcequery/spyglass/internal/game"
	"github.com/sourcequery/spyglass/internal/models"
	"github.com/sourcequery/spyglass/internal/vars"
	"github.com/sourcequery/spyglass/pkg/a2s"
)

// addrParams extracts the ip and port query parameters shared by the
// per-node endpoints.
func addrParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing ip or port", http.StatusBadRequest)
		return "", 0, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return "", 0, false
	}

	return ip, port, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleVersion reports build metadata.
func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

// handleNodes returns a JSON list of all tracked server nodes.
func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	nodes, err := s.storage.GetNodes()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch nodes")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if nodes == nil {
		nodes = []models.Node{}
	}

	writeJSON(w, http.StatusOK, nodes)
}

// handleGetNode returns details for a specific tracked node.
// Query params: ?ip=1.2.3.4&port=27015
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := addrParams(w, r)
	if !ok {
		return
	}

	node, err := s.storage.GetNode(ip, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch node")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if node == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// handleDeleteNode removes a specific node from the database.
// Query params: ?ip=1.2.3.4&port=27015
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := addrParams(w, r)
	if !ok {
		return
	}

	if err := s.storage.DeleteNode(ip, port); err != nil {
		log.Error().Err(err).
			Str("ip", ip).
			Int("port", port).
			Msg("Failed to delete node")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("ip", ip).
		Int("port", port).
		Msg("Node deleted manually")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Node deleted"})
}

// handleQueryInfo performs a live info query against a game server and
// proxies the decoded snapshot. Query params: ?ip=1.2.3.4&port=27015
func (s *Server) handleQueryInfo(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := addrParams(w, r)
	if !ok {
		return
	}

	info, err := game.QueryInfo(ip, port, s.a2sOptions)
	if err != nil {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// handleQueryPlayers performs a live player-list query against a game
// server. An empty server is reported as an empty list, not an error.
// Query params: ?ip=1.2.3.4&port=27015
func (s *Server) handleQueryPlayers(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := addrParams(w, r)
	if !ok {
		return
	}

	players, err := game.QueryPlayers(ip, port, s.a2sOptions)
	if err != nil && !errors.Is(err, a2s.ErrNoPlayers) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
		return
	}

	if players == nil {
		players = []a2s.Player{}
	}

	writeJSON(w, http.StatusOK, players)
}
