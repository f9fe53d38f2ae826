package a2s

// EDF bits gating the optional trailing fields of an info response.
const (
	edfPort     = 0x80
	edfSteamID  = 0x10
	edfSourceTV = 0x40
	edfKeywords = 0x20
	edfGameID   = 0x01
)

// parseInfo decodes an A2S_INFO response buffer. The parse order is fixed
// by the wire format and never backtracks; any read past the end of the
// buffer fails the whole decode, no partial record is returned.
func parseInfo(data []byte, maxString int) (*ServerInfo, error) {
	r := newReader(data, maxString)
	r.skip(4) // leading marker

	info := &ServerInfo{}
	info.Header = r.readByte()
	info.Protocol = r.readByte()
	info.Name = r.readString()
	info.Map = r.readString()
	info.Folder = r.readString()
	info.Game = r.readString()
	info.AppID = r.readUint16()
	info.Players = r.readByte()
	info.MaxPlayers = r.readByte()
	info.Bots = r.readByte()
	info.ServerType = ServerType(r.readByte())
	info.Environment = Environment(r.readByte())
	info.Password = r.readByte() == 1
	info.VAC = r.readByte() == 1

	// The game version string must be consumed even by callers that do
	// not care about it, it sits between the fixed fields and the EDF
	// byte on the wire.
	info.Version = r.readString()

	info.EDF = r.readByte()

	if info.EDF&edfPort != 0 {
		v := r.readUint16()
		info.Port = &v
	}
	if info.EDF&edfSteamID != 0 {
		v := r.readUint64()
		info.SteamID = &v
	}
	if info.EDF&edfSourceTV != 0 {
		port := r.readUint16()
		name := r.readString()
		info.SourceTVPort = &port
		info.SourceTVName = &name
	}
	if info.EDF&edfKeywords != 0 {
		v := r.readString()
		info.Keywords = &v
	}
	if info.EDF&edfGameID != 0 {
		v := r.readUint64()
		info.GameID = &v
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	return info, nil
}
