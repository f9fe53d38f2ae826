// Package cli implements the one-shot query mode: ask a single server
// for its info and player list and print the result as tables.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/sourcequery/spyglass/internal/config"
	"github.com/sourcequery/spyglass/pkg/a2s"
)

// RunQuery queries the server at addr ("host:port") and prints its info
// snapshot and player list to stdout.
func RunQuery(addr string, options config.A2S) error {
	client, err := a2s.NewAddr(addr)
	if err != nil {
		return err
	}

	client.Timeout = options.Timeout
	client.BufferSize = options.BufferSize
	client.MaxStringLen = options.MaxString

	info, err := client.GetInfo()
	if err != nil {
		return fmt.Errorf("query %s: %w", addr, err)
	}

	printInfo(info)

	players, err := client.GetPlayers()
	if err != nil {
		if errors.Is(err, a2s.ErrNoPlayers) {
			fmt.Println("\nNo players online.")
			return nil
		}
		return fmt.Errorf("query players %s: %w", addr, err)
	}

	printPlayers(players)
	return nil
}

func printInfo(info *a2s.ServerInfo) {
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Field", "Value"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	tw.Append([]string{"Name", info.Name})
	tw.Append([]string{"Map", info.Map})
	tw.Append([]string{"Folder", info.Folder})
	tw.Append([]string{"Game", info.Game})
	tw.Append([]string{"Version", info.Version})
	tw.Append([]string{"App ID", strconv.Itoa(int(info.AppID))})
	tw.Append([]string{"Players", fmt.Sprintf("%d/%d (%d bots)", info.Players, info.MaxPlayers, info.Bots)})
	tw.Append([]string{"Type", info.ServerType.String()})
	tw.Append([]string{"OS", info.Environment.String()})
	tw.Append([]string{"Password", strconv.FormatBool(info.Password)})
	tw.Append([]string{"VAC", strconv.FormatBool(info.VAC)})

	// EDF-gated fields: absent means the server did not send them.
	tw.Append([]string{"Game port", optUint16(info.Port)})
	tw.Append([]string{"Steam ID", optUint64(info.SteamID)})
	tw.Append([]string{"SourceTV port", optUint16(info.SourceTVPort)})
	tw.Append([]string{"SourceTV name", optString(info.SourceTVName)})
	tw.Append([]string{"Keywords", optString(info.Keywords)})
	tw.Append([]string{"Game ID", optUint64(info.GameID)})

	tw.Render()
}

func printPlayers(players []a2s.Player) {
	fmt.Println()

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"#", "Name", "Score", "Connected"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, p := range players {
		tw.Append([]string{
			strconv.Itoa(int(p.Index)),
			p.Name,
			strconv.Itoa(int(p.Score)),
			fmt.Sprintf("%.0fs", p.Duration),
		})
	}

	tw.Render()
}

func optUint16(v *uint16) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(int(*v))
}

func optUint64(v *uint64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(*v, 10)
}

func optString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}
