package server

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/kittymc-go/kittymc/internal/kerr"
	"github.com/kittymc-go/kittymc/pkg/protocol"
	"github.com/kittymc-go/kittymc/pkg/world"
)

// defaultViewDistance is used until the client's ClientSettings packet
// reports its real value.
const defaultViewDistance = 10

// keepAliveInterval and keepAliveTimeout match spec.md §4.H's heartbeat
// contract: one ping at most every 5s, dead after 30s of silence.
const (
	keepAliveInterval = 5 * time.Second
	keepAliveTimeout  = 30 * time.Second
)

// recvBufferFloor is the receive buffer's minimum size; it grows in
// 2048-byte steps for an oversized frame and never shrinks below this.
const recvBufferFloor = 2048

// Client is the process-local connection state spec.md §3 describes:
// socket, protocol state, compression, and (once logged in) the
// view-distance/loaded-chunk bookkeeping and a reference to its Player.
type Client struct {
	conn       net.Conn
	remoteAddr string
	log        *slog.Logger

	state State
	comp  protocol.Compression

	recvBuf    []byte
	fragmented bool

	sendMu sync.Mutex

	brand        string
	viewDistance int
	loadedChunks map[world.ChunkPos]bool

	uuid    [16]byte
	uuidStr string
	player  *Player

	lastHeartbeatSentAt    time.Time
	lastHeartbeatID        int64
	lastBackbeatReceivedAt time.Time
	backbeatMu             sync.Mutex

	initialChunksLoaded bool
}

// State aliases protocol.State so callers outside pkg/protocol don't need
// to import it just to read a connection's stage.
type State = protocol.State

const (
	StateHandshake = protocol.StateHandshake
	StateStatus    = protocol.StateStatus
	StateLogin     = protocol.StateLogin
	StatePlay      = protocol.StatePlay
)

func newClient(conn net.Conn, log *slog.Logger) *Client {
	return &Client{
		conn:         conn,
		remoteAddr:   conn.RemoteAddr().String(),
		log:          log,
		state:        StateHandshake,
		recvBuf:      make([]byte, 0, recvBufferFloor),
		viewDistance: defaultViewDistance,
		loadedChunks: make(map[world.ChunkPos]bool),
	}
}

// sendPacket frames and writes a single clientbound packet. A partial
// write or I/O error is always fatal for the connection.
func (c *Client) sendPacket(p protocol.Encoder) error {
	buf := protocol.EncodePacket(p, c.comp)
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err := c.conn.Write(buf)
	return err
}

// nextPacket blocks until one full frame is available and returns its
// decoded packet, skipping frames whose id is not implemented in the
// current state. Any other error ends the connection; a clean close by
// the peer is reported as *kerr.Disconnected.
//
// This is the per-connection-goroutine counterpart to spec.md §4.H's
// poll-the-socket-into-a-growing-buffer loop: instead of polling a
// non-blocking socket every tick, a blocking Read supplies new bytes
// only when DecodeNext has exhausted what's buffered, which is the
// natural mapping of that state machine onto a dedicated goroutine.
func (c *Client) nextPacket() (protocol.Packet, error) {
	for {
		consumed, pkt, err := protocol.DecodeNext(c.recvBuf, c.state, c.comp)
		if err == nil {
			c.recvBuf = c.recvBuf[consumed:]
			c.shrinkRecvBuf()
			return pkt, nil
		}

		var notImpl *kerr.NotImplemented
		if errors.As(err, &notImpl) {
			c.recvBuf = c.recvBuf[consumed:]
			c.shrinkRecvBuf()
			c.log.Debug("unimplemented packet", "id", notImpl.ID, "state", c.state.String())
			continue
		}

		var notEnough *kerr.NotEnoughData
		if !errors.As(err, &notEnough) {
			return nil, err
		}

		if err := c.fill(); err != nil {
			return nil, err
		}
	}
}

// fill reads more bytes off the socket, growing the buffer in
// 2048-byte steps beyond its current length when a single read isn't
// enough to make progress.
func (c *Client) fill() error {
	grow := recvBufferFloor
	start := len(c.recvBuf)
	c.recvBuf = append(c.recvBuf, make([]byte, grow)...)
	n, err := c.conn.Read(c.recvBuf[start:])
	c.recvBuf = c.recvBuf[:start+n]
	if n == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return &kerr.Disconnected{}
		}
		return err
	}
	return nil
}

func (c *Client) shrinkRecvBuf() {
	if len(c.recvBuf) == 0 && cap(c.recvBuf) > recvBufferFloor {
		c.recvBuf = make([]byte, 0, recvBufferFloor)
	}
}

// runKeepAlive pings every 5s and closes the connection if no reply has
// arrived within the trailing 30s window; it runs for the lifetime of a
// Play-state connection.
func (c *Client) runKeepAlive(done <-chan struct{}) {
	c.backbeatMu.Lock()
	c.lastBackbeatReceivedAt = time.Now()
	c.backbeatMu.Unlock()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.backbeatMu.Lock()
			last := c.lastBackbeatReceivedAt
			c.backbeatMu.Unlock()
			if time.Since(last) > keepAliveTimeout {
				c.log.Info("keep-alive timeout", "player", c.uuidStr)
				c.conn.Close()
				return
			}

			id := rand.Int63()
			c.lastHeartbeatID = id
			c.lastHeartbeatSentAt = time.Now()
			if err := c.sendPacket(&protocol.KeepAliveClientbound{KeepAliveID: id}); err != nil {
				return
			}
		}
	}
}

// registerBackbeat records a client's KeepAlive reply. A single
// mismatched id does not invalidate liveness — any reply counts, per
// spec.md §4.H's documented pragmatic choice.
func (c *Client) registerBackbeat() {
	c.backbeatMu.Lock()
	c.lastBackbeatReceivedAt = time.Now()
	c.backbeatMu.Unlock()
}
