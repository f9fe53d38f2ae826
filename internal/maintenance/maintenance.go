// Package maintenance provides one-shot tools to clean and refresh the
// tracked-node database.
package maintenance

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sourcequery/spyglass/internal/config"
	"github.com/sourcequery/spyglass/internal/game"
	"github.com/sourcequery/spyglass/internal/models"
	"github.com/sourcequery/spyglass/internal/storage"
)

// Run checks if any maintenance flags are set and executes the
// corresponding tasks. Returns true if a maintenance task was executed
// (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	// Prune Empty
	if cfg.Storage.PruneEmpty != "" {
		folder := parseFolder(cfg.Storage.PruneEmpty)
		log.Info().Str("game_filter", folder).Msg("Pruning empty nodes...")

		count, err := store.DeleteEmptyNodes(folder)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune nodes")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	var (
		nodes    []models.Node
		err      error
		taskName string
	)

	switch {
	case cfg.Storage.CheckInactive != "":
		taskName = "Check Inactive"
		folder := parseFolder(cfg.Storage.CheckInactive)
		log.Info().Str("game_filter", folder).Msg("Fetching inactive nodes for check...")
		nodes, err = store.GetNodesSubset(folder, true)
	case cfg.Storage.CheckAll != "":
		taskName = "Check All"
		folder := parseFolder(cfg.Storage.CheckAll)
		log.Info().Str("game_filter", folder).Msg("Fetching all nodes for re-check...")
		nodes, err = store.GetNodesSubset(folder, false)
	default:
		return false
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch nodes")
		return true
	}

	if len(nodes) == 0 {
		log.Info().Msg("No nodes found for maintenance")
		return true
	}

	log.Info().Int("count", len(nodes)).Msgf("Starting '%s' task with 10 workers...", taskName)
	runWorkerPool(nodes, store, cfg.A2S)
	log.Info().Msg("Maintenance task completed")

	return true
}

// parseFolder handles the optional value logic: a flag given without a
// value arrives as AnyGame, which means "no filter" for the storage
// layer.
func parseFolder(input string) string {
	if input == config.AnyGame {
		return ""
	}

	return input
}

func runWorkerPool(nodes []models.Node, store *storage.Repository, a2sOpts config.A2S) {
	const workers = 10
	jobs := make(chan models.Node, len(nodes))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for node := range jobs {
				processNode(node, store, a2sOpts)
			}
		}()
	}

	for _, n := range nodes {
		jobs <- n
	}
	close(jobs)

	wg.Wait()
}

// processNode re-checks one tracked server: unreachable or invalid nodes
// are deleted, live ones get a fresh snapshot.
func processNode(node models.Node, store *storage.Repository, a2sOpts config.A2S) {
	logCtx := log.With().
		Str("ip", node.IP).
		Int("port", node.Port).
		Logger()

	if node.Port <= 0 || node.Port > 65535 {
		logCtx.Debug().Msg("Invalid port, deleting node")
		if err := store.DeleteNode(node.IP, node.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete invalid node")
		}
		return
	}

	info, err := game.QueryInfo(node.IP, node.Port, a2sOpts)
	if err != nil {
		logCtx.Debug().Err(err).Msg("Server unreachable, deleting node")
		if err := store.DeleteNode(node.IP, node.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete unreachable node")
		}
		return
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
	node.LastSeen = time.Now()

	if err := store.UpsertNode(node); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update node")
	} else {
		logCtx.Trace().Msg("Node updated successfully")
	}
}
