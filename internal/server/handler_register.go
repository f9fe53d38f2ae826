package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/sourcequery/spyglass/internal/game"
	"github.com/sourcequery/spyglass/internal/models"
)

// handleRegister accepts a server registration, applies the soft dedup
// window, and queues the address for asynchronous processing so the A2S
// round-trip never blocks the client.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	clientIP := GetRealIP(r, s.trustProxy)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().
			Err(err).
			Str("ip", clientIP).
			Msg("Invalid JSON")

		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "rejected", "message": "invalid payload"})
		return
	}

	if req.Port < 0 || req.Port > 65535 {
		log.Debug().
			Str("ip", clientIP).
			Int("port", req.Port).
			Msg("Invalid port")

		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "rejected", "message": "invalid port"})
		return
	}
	if req.Port == 0 {
		req.Port = 27015
	}

	// A client may register a third-party server; without an explicit IP
	// it registers itself.
	ip := req.IP
	if ip == "" {
		ip = clientIP
	} else if net.ParseIP(ip) == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "rejected", "message": "invalid ip"})
		return
	}

	// Soft limit: a server processed moments ago is acknowledged without
	// being queried again.
	softKey := xxhash.Sum64String(fmt.Sprintf("%s:%d", ip, req.Port))
	if val, ok := s.seenCache.Load(softKey); ok {
		if lastSeen, ok := val.(time.Time); ok && time.Since(lastSeen) < s.softLimitDur {
			log.Trace().
				Str("ip", ip).
				Int("port", req.Port).
				Msg("Dropped by soft limit hit")

			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "already tracked"})
			return
		}
	}
	s.seenCache.Store(softKey, time.Now())

	select {
	case s.queue <- registerJob{IP: ip, Port: req.Port}:
		log.Trace().
			Str("ip", ip).
			Int("port", req.Port).
			Msg("Registration queued")

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok", "message": "queued"})
	default:
		log.Warn().
			Str("ip", ip).
			Int("port", req.Port).
			Msg("Queue full, registration dropped")

		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "rejected", "message": "queue full"})
	}
}

// worker is a background goroutine that processes jobs from the
// registration queue.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.processJob(job)
	}
}

// processJob executes the logic for a single registration: query the game
// server, check the game whitelist, resolve the country and upsert the
// node. An unreachable server is still recorded so maintenance can
// re-check or prune it later.
func (s *Server) processJob(job registerJob) {
	queryIP := job.IP
	if queryIP == "::1" {
		queryIP = "127.0.0.1"
	}

	node := models.Node{
		IP:        queryIP,
		Port:      job.Port,
		FirstSeen: time.Now(),
		LastSeen:  time.Now(),
	}

	queried := false
	parsedIP := net.ParseIP(queryIP)
	if parsedIP != nil && parsedIP.To4() != nil {
		info, err := game.QueryInfo(queryIP, job.Port, s.a2sOptions)
		if err != nil {
			log.Debug().
				Err(err).
				Str("ip", queryIP).
				Int("port", job.Port).
				Msg("Query failed")
		} else {
			if len(s.allowedGames) > 0 {
				if _, allowed := s.allowedGames[xxhash.Sum64String(info.Folder)]; !allowed {
					log.Debug().
						Str("ip", queryIP).
						Int("port", job.Port).
						Str("folder", info.Folder).
						Msg("Game not in whitelist, dropped")
					return
				}
			}

			node.ServerName = info.Name
			node.MapName = info.Map
			node.Folder = info.Folder
			node.GameName = info.Game
			node.GameVersion = info.Version
			node.ServerOS = info.Environment.String()
			node.AppID = int(info.AppID)
			node.Players = info.Players
			node.MaxPlayers = info.MaxPlayers
			node.Bots = info.Bots
			node.VAC = info.VAC
			node.Password = info.Password
			if info.Keywords != nil {
				node.Keywords = *info.Keywords
			}
			queried = true
		}
	} else {
		log.Trace().
			Str("ip", queryIP).
			Msg("Skipping query for non-IPv4 address")
	}

	if s.geoip != nil {
		node.CountryCode = s.geoip.CountryCode(queryIP)
	}

	if err := s.storage.UpsertNode(node); err != nil {
		log.Error().Err(err).Msg("Failed to save node to DB")
		return
	}

	log.Debug().
		Str("ip", node.IP).
		Int("port", node.Port).
		Bool("queried", queried).
		Msg("Node saved")
}
