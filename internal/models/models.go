// Package models defines the data structures used for API requests and
// database persistence.
package models

import "time"

// RegisterRequest represents the payload submitting a game server for
// tracking. IP is optional; when empty the reporting client's address is
// used.
type RegisterRequest struct {
	IP   string `json:"ip,omitempty"`
	Port int    `json:"port"`
}

// Node represents a tracked game server stored in the database, together
// with the last query snapshot taken from it. Query fields are empty
// until a query succeeds.
type Node struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IP          string    `json:"ip"`
	CountryCode string    `json:"country_code"`
	ServerName  string    `json:"server_name"`
	MapName     string    `json:"map_name"`
	Folder      string    `json:"folder"`
	GameName    string    `json:"game_name"`
	GameVersion string    `json:"game_version"`
	ServerOS    string    `json:"server_os"`
	Keywords    string    `json:"keywords"`
	Port        int       `json:"port"`
	AppID       int       `json:"app_id"`
	Checks      int64     `json:"checks"`
	Players     byte      `json:"players"`
	MaxPlayers  byte      `json:"max_players"`
	Bots        byte      `json:"bots"`
	VAC         bool      `json:"vac"`
	Password    bool      `json:"password"`
}
