// Package server implements the connection state machine and server
// core: accept loop, handshake/status/login/play pumps, the player and
// client tables, and fan-out broadcast.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/kittymc-go/kittymc/internal/kerr"
	"github.com/kittymc-go/kittymc/pkg/chat"
	"github.com/kittymc-go/kittymc/pkg/protocol"
	"github.com/kittymc-go/kittymc/pkg/world"
)

// Gamemode constants, protocol-numbered.
const (
	GameModeSurvival  byte = 0
	GameModeCreative  byte = 1
	GameModeAdventure byte = 2
	GameModeSpectator byte = 3
)

// Address is the fixed listen address spec.md §6 mandates — no flags,
// no config file, one port.
const Address = ":25565"

// compressionThreshold is the fixed Set Compression value spec.md §6
// names.
const compressionThreshold = 256

// chunkManagerWorkers is the generator pool size (N≈4, spec.md §4.G).
const chunkManagerWorkers = 4

// Server owns every connected client and player plus the chunk manager,
// per spec.md §3's Server record.
type Server struct {
	listener net.Listener
	log      *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	players map[string]*Player
	nextEID int32

	chunks *world.Manager

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	chunksCancel context.CancelFunc
}

// New builds a server rooted at worldDir, generating with seed.
func New(worldDir string, seed int64, log *slog.Logger) *Server {
	return &Server{
		log:        log,
		clients:    make(map[string]*Client),
		players:    make(map[string]*Player),
		nextEID:    1,
		chunks:     world.NewManager(worldDir, seed, chunkManagerWorkers, log.With("component", "chunk_manager")),
		shutdownCh: make(chan struct{}),
	}
}

// Start opens the listener, launches the chunk manager, and begins
// accepting connections. It returns once listening has started; the
// accept loop and chunk manager run in background goroutines.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", Address, err)
	}
	s.listener = ln
	s.log.Info("listening", "addr", Address)

	ctx, cancel := context.WithCancel(context.Background())
	s.chunksCancel = cancel
	go func() {
		if err := s.chunks.Run(ctx); err != nil {
			s.log.Error("chunk manager stopped", "error", err)
		}
	}()

	go s.acceptLoop()
	return nil
}

// Stop sends every Play-state client a shutdown disconnect, closes the
// listener, and stops the chunk manager. Safe to call more than once.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
		if s.listener != nil {
			s.listener.Close()
		}

		s.mu.RLock()
		clients := make([]*Client, 0, len(s.clients))
		for _, c := range s.clients {
			clients = append(clients, c)
		}
		s.mu.RUnlock()

		for _, c := range clients {
			c.sendPacket(&protocol.DisconnectPlay{Reason: chat.Colored("server restarting", "yellow").String()})
			c.conn.Close()
		}

		if s.chunksCancel != nil {
			s.chunksCancel()
		}
	})
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return
			default:
				s.log.Error("accept error", "error", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

// handleConnection drives one socket through Handshake, then Status or
// Login, and — on a successful login — the Play loop, per spec.md
// §4.H's state diagram.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	c := newClient(conn, s.log.With("remote_addr", conn.RemoteAddr().String()))

	pkt, err := c.nextPacket()
	if err != nil {
		return
	}
	hs, ok := pkt.(*protocol.Handshake)
	if !ok {
		return
	}

	switch hs.NextState {
	case protocol.NextStateStatus:
		s.handleStatus(c)
	case protocol.NextStateLogin:
		c.state = StateLogin
		s.handleLogin(c, hs)
	}
}

func (s *Server) handleStatus(c *Client) {
	c.state = StateStatus
	for {
		pkt, err := c.nextPacket()
		if err != nil {
			return
		}
		switch p := pkt.(type) {
		case *protocol.StatusRequest:
			if err := c.sendPacket(&protocol.StatusResponse{JSON: s.statusJSON()}); err != nil {
				return
			}
		case *protocol.StatusPing:
			c.sendPacket(&protocol.StatusPong{Payload: p.Payload})
			return
		}
	}
}

func (s *Server) statusJSON() string {
	s.mu.RLock()
	online := len(s.players)
	s.mu.RUnlock()
	return fmt.Sprintf(
		`{"version":{"name":"1.12.2","protocol":%d},"players":{"max":20,"online":%d,"sample":[]},"description":{"text":"A kittymc server"}}`,
		protocol.ProtocolVersion, online,
	)
}

func (s *Server) handleLogin(c *Client, hs *protocol.Handshake) {
	pkt, err := c.nextPacket()
	if err != nil {
		return
	}
	ls, ok := pkt.(*protocol.LoginStart)
	if !ok {
		return
	}

	if hs.ProtocolVersion != protocol.ProtocolVersion {
		verr := &kerr.VersionMismatch{Got: hs.ProtocolVersion, Want: protocol.ProtocolVersion}
		reason := chat.Colored(fmt.Sprintf("wrong version: %v", verr), "red").String()
		c.sendPacket(&protocol.LoginDisconnect{Reason: reason})
		return
	}

	uid := offlineUUID(ls.Name)
	var uidBytes [16]byte
	copy(uidBytes[:], uid[:])
	c.uuid = uidBytes
	c.uuidStr = string(uidBytes[:])
	c.log = c.log.With("player", ls.Name)

	c.sendPacket(&protocol.SetCompression{Threshold: compressionThreshold})
	c.comp = protocol.Compression{Enabled: true, Threshold: compressionThreshold}
	if err := c.sendPacket(&protocol.LoginSuccess{UUID: uid.String(), Username: ls.Name}); err != nil {
		return
	}
	c.state = StatePlay

	s.mu.Lock()
	eid := s.nextEID
	s.nextEID++
	s.mu.Unlock()

	p := newPlayer(eid, ls.Name, uidBytes)
	c.player = p

	s.runPlay(c, p)
}

// runPlay drives the Play-state join sequence and main packet loop for
// one connection (spec.md §4.D/4.I).
func (s *Server) runPlay(c *Client, p *Player) {
	c.sendPacket(&protocol.JoinGame{
		EntityID: p.EntityID, Gamemode: p.GameMode,
		Dimension: 0, Difficulty: 0, MaxPlayers: 20,
		LevelType: "flat", ReducedDebugInfo: false,
	})
	c.sendPacket(protocol.NewBrandMessage("vanilla"))
	c.sendPacket(&protocol.ServerDifficulty{Difficulty: 0})
	c.sendPacket(&protocol.PlayerAbilities{Flags: abilitiesFlags(p.GameMode), FlyingSpeed: 0.05, FOVModifier: 0.1})
	c.sendPacket(&protocol.HeldItemChangeClientbound{Slot: 0})
	c.sendPacket(&protocol.EntityStatus{EntityID: p.EntityID, EntityStatus: 24})
	c.sendPacket(&protocol.UnlockRecipes{})

	s.mu.RLock()
	entries := make([]protocol.PlayerListEntry, 0, len(s.players))
	for _, other := range s.players {
		entries = append(entries, protocol.PlayerListEntry{UUID: other.UUID, Name: other.Username, Gamemode: int32(other.GameMode)})
	}
	s.mu.RUnlock()
	entries = append(entries, protocol.PlayerListEntry{UUID: p.UUID, Name: p.Username, Gamemode: int32(p.GameMode)})
	c.sendPacket(&protocol.PlayerListItemAdd{Entries: entries})

	teleportID := int32(1)
	x, y, z, yaw, pitch, _ := p.Position()
	c.sendPacket(&protocol.PlayerPositionAndLookClientbound{X: x, Y: y, Z: z, Yaw: yaw, Pitch: pitch, Flags: 0, TeleportID: teleportID})

	c.sendPacket(&protocol.TimeUpdate{WorldAge: 0, TimeOfDay: 0})
	c.sendPacket(&protocol.SpawnPosition{X: 8, Y: 5, Z: 8})

	s.mu.Lock()
	s.clients[c.uuidStr] = c
	s.players[c.uuidStr] = p
	s.mu.Unlock()

	s.broadcastPlayerListAdd(p)
	s.broadcastChat(chat.Colored(p.Username+" joined the game", "yellow"))
	s.spawnPlayerForOthers(p)
	s.spawnOthersForPlayer(c)

	keepAliveDone := make(chan struct{})
	go c.runKeepAlive(keepAliveDone)
	defer close(keepAliveDone)

	defer s.teardownPlayer(c, p)

	for {
		if !c.initialChunksLoaded {
			c.initialChunksLoaded = s.updateChunks(c, x, z)
		}

		pkt, err := c.nextPacket()
		if err != nil {
			if isCleanDisconnect(err) {
				return
			}
			s.log.Warn("connection error", "player", p.Username, "error", err)
			return
		}
		s.routePlayPacket(c, p, pkt)
	}
}

func isCleanDisconnect(err error) bool {
	var d *kerr.Disconnected
	return errors.As(err, &d) || errors.Is(err, net.ErrClosed)
}

func abilitiesFlags(gameMode byte) byte {
	if gameMode == GameModeCreative || gameMode == GameModeSpectator {
		return 0x0F // invulnerable | flying-allowed | instant-break | can-fly
	}
	return 0x00
}

func (s *Server) teardownPlayer(c *Client, p *Player) {
	s.mu.Lock()
	delete(s.clients, c.uuidStr)
	delete(s.players, c.uuidStr)
	s.mu.Unlock()

	s.broadcastPlayerListRemove(p.UUID)
	s.broadcastChat(chat.Colored(p.Username+" left the game", "yellow"))
	s.broadcastDestroyEntity(p.EntityID)
	s.log.Info("player disconnected", "player", p.Username)
}
