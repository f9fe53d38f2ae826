package a2s

import (
	"bytes"
	"encoding/binary"
	"math"
)

// infoFixture holds every field of a synthetic A2S_INFO response. Only
// the optional fields whose EDF bit is set are written to the wire.
type infoFixture struct {
	header       byte
	protocol     byte
	name         string
	mapName      string
	folder       string
	game         string
	appID        uint16
	players      byte
	maxPlayers   byte
	bots         byte
	serverType   byte
	environment  byte
	password     bool
	vac          bool
	version      string
	edf          byte
	port         uint16
	steamID      uint64
	sourceTVPort uint16
	sourceTVName string
	keywords     string
	gameID       uint64
}

func defaultInfoFixture() infoFixture {
	return infoFixture{
		header:       S2AInfo,
		protocol:     0x11,
		name:         "Test Server",
		mapName:      "de_dust2",
		folder:       "csgo",
		game:         "Counter-Strike: Global Offensive",
		appID:        730,
		players:      16,
		maxPlayers:   32,
		bots:         2,
		serverType:   'd',
		environment:  'l',
		password:     false,
		vac:          true,
		version:      "1.38.7.9",
		port:         27015,
		steamID:      90071996842377216,
		sourceTVPort: 27020,
		sourceTVName: "SourceTV",
		keywords:     "secure,deathmatch",
		gameID:       730,
	}
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func encodeInfo(f infoFixture) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	buf.WriteByte(f.header)
	buf.WriteByte(f.protocol)
	writeCString(&buf, f.name)
	writeCString(&buf, f.mapName)
	writeCString(&buf, f.folder)
	writeCString(&buf, f.game)
	_ = binary.Write(&buf, binary.LittleEndian, f.appID)
	buf.WriteByte(f.players)
	buf.WriteByte(f.maxPlayers)
	buf.WriteByte(f.bots)
	buf.WriteByte(f.serverType)
	buf.WriteByte(f.environment)
	buf.WriteByte(boolByte(f.password))
	buf.WriteByte(boolByte(f.vac))
	writeCString(&buf, f.version)
	buf.WriteByte(f.edf)

	if f.edf&edfPort != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, f.port)
	}
	if f.edf&edfSteamID != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, f.steamID)
	}
	if f.edf&edfSourceTV != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, f.sourceTVPort)
		writeCString(&buf, f.sourceTVName)
	}
	if f.edf&edfKeywords != 0 {
		writeCString(&buf, f.keywords)
	}
	if f.edf&edfGameID != 0 {
		_ = binary.Write(&buf, binary.LittleEndian, f.gameID)
	}

	return buf.Bytes()
}

func encodePlayers(header byte, players []Player) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	buf.WriteByte(header)
	buf.WriteByte(byte(len(players)))

	for _, p := range players {
		buf.WriteByte(p.Index)
		writeCString(&buf, p.Name)
		_ = binary.Write(&buf, binary.LittleEndian, p.Score)
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(p.Duration))
	}

	return buf.Bytes()
}
