// Package game binds the A2S client library to application configuration.
package game

import (
	"github.com/sourcequery/spyglass/internal/config"
	"github.com/sourcequery/spyglass/pkg/a2s"
)

func newClient(ip string, port int, options config.A2S) (*a2s.Client, error) {
	client, err := a2s.New(ip, port)
	if err != nil {
		return nil, err
	}

	client.Timeout = options.Timeout
	client.BufferSize = options.BufferSize
	client.MaxStringLen = options.MaxString

	return client, nil
}

// QueryInfo requests A2S_INFO from a game server and returns the decoded
// snapshot, or an error if the server is unreachable or sent a malformed
// response.
func QueryInfo(ip string, port int, options config.A2S) (*a2s.ServerInfo, error) {
	client, err := newClient(ip, port, options)
	if err != nil {
		return nil, err
	}

	return client.GetInfo()
}

// QueryPlayers requests the current player list from a game server.
// A server with nobody connected yields a2s.ErrNoPlayers.
func QueryPlayers(ip string, port int, options config.A2S) ([]a2s.Player, error) {
	client, err := newClient(ip, port, options)
	if err != nil {
		return nil, err
	}

	return client.GetPlayers()
}
