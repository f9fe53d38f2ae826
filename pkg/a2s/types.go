package a2s

// ServerType describes how the server process is hosted.
type ServerType byte

// Known server type values from the info response.
const (
	TypeDedicated ServerType = 'd'
	TypeListen    ServerType = 'l'
	TypeRelay     ServerType = 'p'
)

func (t ServerType) String() string {
	switch t {
	case TypeDedicated:
		return "Dedicated"
	case TypeListen:
		return "Listen"
	case TypeRelay:
		return "SourceTV relay"
	default:
		return "Unknown"
	}
}

// Environment describes the operating system the server runs on.
type Environment byte

// Known environment values from the info response.
const (
	EnvLinux   Environment = 'l'
	EnvWindows Environment = 'w'
	EnvMac     Environment = 'm'
	EnvMacOld  Environment = 'o'
)

func (e Environment) String() string {
	switch e {
	case EnvLinux:
		return "Linux"
	case EnvWindows:
		return "Windows"
	case EnvMac, EnvMacOld:
		return "Mac"
	default:
		return "Unknown"
	}
}

// ServerInfo is a decoded A2S_INFO response. It is produced whole by the
// decoder and never mutated afterwards.
//
// The pointer-typed fields at the end are gated by bits of the EDF byte.
// A nil pointer means the server did not send the field; zero is a valid
// value for several of them (port 0, game ID 0), so absence is never
// encoded as a zero value.
type ServerInfo struct {
	Header      byte
	Protocol    byte
	Name        string
	Map         string
	Folder      string
	Game        string
	AppID       uint16
	Players     byte
	MaxPlayers  byte
	Bots        byte
	ServerType  ServerType
	Environment Environment
	Password    bool
	VAC         bool
	Version     string
	EDF         byte

	Port         *uint16
	SteamID      *uint64
	SourceTVPort *uint16
	SourceTVName *string
	Keywords     *string
	GameID       *uint64
}

// Player is one entry of a decoded A2S_PLAYER response.
//
// Index is the position within the wire-format list for this response
// only, not a stable identifier across queries.
type Player struct {
	Index    byte
	Name     string
	Score    int32
	Duration float32 // seconds connected
}
