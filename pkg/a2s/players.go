package a2s

// parsePlayers decodes an A2S_PLAYER response buffer into the server's
// player list, in wire order. The count byte is authoritative: a count
// pointing past the end of the buffer fails the decode the same way any
// other truncated field does.
func parsePlayers(data []byte, maxString int) ([]Player, error) {
	r := newReader(data, maxString)
	r.skip(4) // leading marker
	_ = r.readByte()
	count := r.readByte()
	if err := r.Err(); err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, ErrNoPlayers
	}

	players := make([]Player, 0, count)
	for i := 0; i < int(count); i++ {
		var p Player
		p.Index = r.readByte()
		p.Name = r.readString()
		p.Score = int32(r.readUint32())
		p.Duration = r.readFloat32()
		if err := r.Err(); err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, nil
}
