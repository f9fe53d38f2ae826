// Package a2s implements the Valve Source Engine server query protocol
// (A2S) over UDP: the challenge-response handshake plus decoders for the
// info and player-list responses.
package a2s

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Wire constants of the query protocol.
const (
	A2SInfo      = 0x54
	A2SPlayer    = 0x55
	S2CChallenge = 0x41
	S2AInfo      = 0x49
	S2APlayer    = 0x44

	// DefaultBufferSize is the receive buffer for the final response
	// datagram.
	DefaultBufferSize uint16 = 4096

	// DefaultMaxStringLen bounds the scan for a string terminator.
	DefaultMaxStringLen = 256

	// challengeLen is the exact size of a challenge datagram: the 4-byte
	// marker, the challenge opcode and a 4-byte token.
	challengeLen = 9
)

var wireMarker = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// Request templates. The trailing 4 bytes of each are a placeholder that
// is overwritten with the server-issued challenge token before the second
// send. Callers must never mutate these.
var (
	infoRequest = append(append(append(
		[]byte{0xFF, 0xFF, 0xFF, 0xFF, A2SInfo},
		[]byte("Source Engine Query")...),
		0x00),
		0xFF, 0xFF, 0xFF, 0xFF)

	playerRequest = []byte{0xFF, 0xFF, 0xFF, 0xFF, A2SPlayer, 0xFF, 0xFF, 0xFF, 0xFF}
)

// Client queries a single game server. It holds no connection: every
// query opens one UDP socket, performs the two-step exchange and closes
// the socket again, so a Client is safe for concurrent use.
type Client struct {
	addr *net.UDPAddr

	// Timeout is the deadline applied to the whole exchange. Zero means
	// block indefinitely; callers wanting a bound must set one.
	Timeout time.Duration

	// BufferSize is the receive buffer for the final response datagram.
	BufferSize uint16

	// MaxStringLen bounds the terminator scan of every decoded string.
	MaxStringLen int
}

// New creates a client for the server at host:port.
func New(host string, port int) (*Client, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, port)
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return &Client{
		addr:         addr,
		BufferSize:   DefaultBufferSize,
		MaxStringLen: DefaultMaxStringLen,
	}, nil
}

// NewAddr creates a client from a combined "host:port" string.
func NewAddr(addr string) (*Client, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%w: port %q is not a number", ErrInvalidAddress, portStr)
	}

	return New(host, port)
}

// Addr returns the resolved server address.
func (c *Client) Addr() string {
	return c.addr.String()
}

// GetInfo performs an A2S_INFO query and decodes the response.
func (c *Client) GetInfo() (*ServerInfo, error) {
	data, err := c.exchange(infoRequest)
	if err != nil {
		return nil, err
	}

	return parseInfo(data, c.MaxStringLen)
}

// GetPlayers performs an A2S_PLAYER query and decodes the response. A
// server reporting zero players yields ErrNoPlayers, not an empty slice.
func (c *Client) GetPlayers() ([]Player, error) {
	data, err := c.exchange(playerRequest)
	if err != nil {
		return nil, err
	}

	return parsePlayers(data, c.MaxStringLen)
}

// exchange runs one complete challenge handshake: send the template,
// receive the 9-byte challenge, patch the template's trailing placeholder
// with the token, resend, and receive the final response. The socket is
// closed on every exit path and no retry is attempted; a failed handshake
// fails the whole query.
func (c *Client) exchange(template []byte) ([]byte, error) {
	conn, err := net.DialUDP("udp", nil, c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if c.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := conn.Write(template); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	challenge := make([]byte, challengeLen)
	n, err := conn.Read(challenge)
	if err != nil {
		return nil, fmt.Errorf("receive challenge: %w", err)
	}
	if n != challengeLen || !bytes.Equal(challenge[:4], wireMarker) || challenge[4] != S2CChallenge {
		return nil, ErrMalformedChallenge
	}

	// Echo the token back in the placeholder bytes, byte for byte.
	request := make([]byte, len(template))
	copy(request, template)
	copy(request[len(request)-4:], challenge[5:challengeLen])

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("send challenged request: %w", err)
	}

	size := c.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	response := make([]byte, size)
	n, err = conn.Read(response)
	if err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}

	return response[:n], nil
}
