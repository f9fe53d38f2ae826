package a2s

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer simulates a Source server that always demands the challenge
// handshake: any request whose trailing 4 bytes are not the token gets a
// challenge datagram back, a correctly patched request gets the canned
// response for its opcode.
type mockServer struct {
	t        *testing.T
	listener net.PacketConn

	token          [4]byte
	infoResponse   []byte
	playerResponse []byte
	badChallenge   bool
	silent         bool

	mu       sync.Mutex
	requests [][]byte
}

func newMockServer(t *testing.T) *mockServer {
	l, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err, "start mock server")

	s := &mockServer{
		t:        t,
		listener: l,
		token:    [4]byte{0x01, 0x02, 0x03, 0x04},
	}

	go s.serve()
	return s
}

func (s *mockServer) Addr() string {
	return s.listener.LocalAddr().String()
}

func (s *mockServer) Close() {
	_ = s.listener.Close()
}

// Requests returns a copy of every datagram received so far.
func (s *mockServer) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *mockServer) serve() {
	buf := make([]byte, 1400)
	for {
		n, addr, err := s.listener.ReadFrom(buf)
		if err != nil {
			return // listener closed
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		s.mu.Lock()
		s.requests = append(s.requests, data)
		s.mu.Unlock()

		s.handlePacket(data, addr)
	}
}

func (s *mockServer) handlePacket(data []byte, addr net.Addr) {
	if s.silent || len(data) < 9 || !bytes.Equal(data[:4], wireMarker) {
		return
	}

	if !bytes.Equal(data[len(data)-4:], s.token[:]) {
		challenge := []byte{0xFF, 0xFF, 0xFF, 0xFF, S2CChallenge}
		if s.badChallenge {
			challenge[4] = 0x00
		}
		challenge = append(challenge, s.token[:]...)
		_, _ = s.listener.WriteTo(challenge, addr)
		return
	}

	switch data[4] {
	case A2SInfo:
		_, _ = s.listener.WriteTo(s.infoResponse, addr)
	case A2SPlayer:
		_, _ = s.listener.WriteTo(s.playerResponse, addr)
	}
}

func newTestClient(t *testing.T, addr string) *Client {
	client, err := NewAddr(addr)
	require.NoError(t, err)
	client.Timeout = 2 * time.Second
	return client
}

func TestClient_GetInfo(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()
	server.infoResponse = encodeInfo(defaultInfoFixture())

	info, err := newTestClient(t, server.Addr()).GetInfo()
	require.NoError(t, err)

	assert.Equal(t, "Test Server", info.Name)
	assert.Equal(t, "de_dust2", info.Map)
	assert.Equal(t, uint16(730), info.AppID)
	assert.Equal(t, EnvLinux, info.Environment)

	// The handshake is two sends: the template with the placeholder, then
	// the same bytes with the token patched into the trailing 4 bytes.
	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, infoRequest, requests[0])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, requests[0][len(requests[0])-4:])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, requests[1][len(requests[1])-4:])
	assert.Equal(t, requests[0][:len(requests[0])-4], requests[1][:len(requests[1])-4])
}

func TestClient_GetPlayers(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()
	server.playerResponse = encodePlayers(S2APlayer, []Player{
		{Index: 0, Name: "Alyx", Score: 12, Duration: 120},
		{Index: 1, Name: "Barney", Score: 4, Duration: 60},
	})

	players, err := newTestClient(t, server.Addr()).GetPlayers()
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Alyx", players[0].Name)
	assert.Equal(t, "Barney", players[1].Name)
}

func TestClient_GetPlayersEmpty(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()
	server.playerResponse = encodePlayers(S2APlayer, nil)

	_, err := newTestClient(t, server.Addr()).GetPlayers()
	assert.ErrorIs(t, err, ErrNoPlayers)
}

func TestClient_MalformedChallenge(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()
	server.badChallenge = true

	_, err := newTestClient(t, server.Addr()).GetInfo()
	assert.ErrorIs(t, err, ErrMalformedChallenge)
}

func TestClient_Timeout(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()
	server.silent = true

	client := newTestClient(t, server.Addr())
	client.Timeout = 100 * time.Millisecond

	_, err := client.GetInfo()
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestNewAddr_Invalid(t *testing.T) {
	_, err := NewAddr("127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = NewAddr("127.0.0.1:notaport")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = New("127.0.0.1", 70000)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
