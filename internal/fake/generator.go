// Package fake provides utilities for generating random node data for
// testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sourcequery/spyglass/internal/models"
	"github.com/sourcequery/spyglass/internal/storage"
)

// GenerateData populates the storage with a specified number of
// randomized node records simulating a mixed population of Source
// servers.
func GenerateData(store *storage.Repository, count int) {
	type gameDef struct {
		folder string
		name   string
		appID  int
		maps   []string
	}

	games := []gameDef{
		{"csgo", "Counter-Strike: Global Offensive", 730, []string{"de_dust2", "de_mirage", "de_inferno", "cs_office"}},
		{"tf", "Team Fortress 2", 440, []string{"cp_dustbowl", "pl_upward", "ctf_2fort"}},
		{"garrysmod", "Garry's Mod", 4000, []string{"gm_construct", "gm_flatgrass"}},
		{"dayz", "DayZ", 221100, []string{"chernarusplus", "livonia", "sakhal"}},
		{"left4dead2", "Left 4 Dead 2", 550, []string{"c1m1_hotel", "c2m1_highway"}},
	}
	osTypes := []string{"Windows", "Linux"}
	versions := []string{"1.38.7.9", "1.39.1.2", "1.40.0.0", "2.0.0-beta"}

	countriesHigh := []string{"US", "DE", "RU", "CN", "BR", "FR", "GB", "PL", "CZ", "KZ", "UA"}
	countriesMid := []string{"CA", "AU", "IT", "ES", "NL", "SE", "JP", "KR", "TR", "BE", "RO"}
	countriesLow := []string{"ZA", "AR", "MX", "IN", "ID", "VN", "CH", "NO", "FI", "DK", "PT"}

	for i := 0; i < count; i++ {
		daysAgo := rand.Intn(30)
		seenTime := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		ip := fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))

		var country string
		roll := rand.Float32()
		switch {
		case roll < 0.70:
			country = countriesHigh[rand.Intn(len(countriesHigh))]
		case roll < 0.90:
			country = countriesMid[rand.Intn(len(countriesMid))]
		default:
			country = countriesLow[rand.Intn(len(countriesLow))]
		}

		g := games[rand.Intn(len(games))]
		maxPlayers := byte(16 << rand.Intn(3)) // 16, 32 or 64 slots

		node := models.Node{
			IP:          ip,
			Port:        27015 + rand.Intn(100),
			CountryCode: country,
			ServerName:  fmt.Sprintf("%s Community #%d", g.name, rand.Intn(1000)),
			MapName:     g.maps[rand.Intn(len(g.maps))],
			Folder:      g.folder,
			GameName:    g.name,
			GameVersion: versions[rand.Intn(len(versions))],
			ServerOS:    osTypes[rand.Intn(len(osTypes))],
			AppID:       g.appID,
			Players:     byte(rand.Intn(int(maxPlayers))),
			MaxPlayers:  maxPlayers,
			Bots:        byte(rand.Intn(4)),
			VAC:         rand.Float32() < 0.8,
			Password:    rand.Float32() < 0.1,
			FirstSeen:   seenTime.Add(-time.Hour * 24 * 7),
			LastSeen:    seenTime,
		}

		if err := store.UpsertNode(node); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake node")
		}

		if rand.Float32() < 0.3 { // 30% chance of repeat check-ins
			_ = store.UpsertNode(node)
			_ = store.UpsertNode(node)
		}
	}
}
