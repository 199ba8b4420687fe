package server

import (
	"github.com/kittymc-go/kittymc/pkg/chat"
	"github.com/kittymc-go/kittymc/pkg/protocol"
)

// broadcast delivers pkt to every Play-state client except the one named
// in exceptUUID (pass a zero UUID to include everyone). One failed
// recipient is logged and does not stop delivery to the rest, per
// spec.md §4.I's send_to_all contract.
func (s *Server) broadcast(exceptUUID [16]byte, pkt protocol.Encoder) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lastErr error
	for uid, c := range s.clients {
		if uid == string(exceptUUID[:]) {
			continue
		}
		if err := c.sendPacket(pkt); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		s.log.Warn("broadcast delivery failure", "error", lastErr)
	}
}

func (s *Server) broadcastChat(msg chat.Message) {
	s.broadcast([16]byte{}, &protocol.ChatMessageClientbound{
		JSONData: msg.String(),
		Position: protocol.ChatPositionChat,
	})
}

func (s *Server) broadcastPlayerListAdd(p *Player) {
	s.broadcast([16]byte{}, &protocol.PlayerListItemAdd{
		Entries: []protocol.PlayerListEntry{{
			UUID:     p.UUID,
			Name:     p.Username,
			Gamemode: int32(p.GameMode),
		}},
	})
}

func (s *Server) broadcastPlayerListRemove(uid [16]byte) {
	s.broadcast([16]byte{}, &protocol.PlayerListItemRemove{UUIDs: [][16]byte{uid}})
}

func (s *Server) broadcastDestroyEntity(entityID int32) {
	s.broadcast([16]byte{}, &protocol.DestroyEntities{EntityIDs: []int32{entityID}})
}

func (s *Server) broadcastBlockChange(x, y, z int32, blockState uint16) {
	s.broadcast([16]byte{}, &protocol.BlockChange{X: x, Y: y, Z: z, BlockID: int32(blockState)})
}

// spawnPlayerForOthers introduces a newly-joined player's entity to
// every already-connected client (spawnOthersForPlayer covers the
// reverse direction). Each SpawnPlayer carries the default player
// metadata stream.
func (s *Server) spawnPlayerForOthers(p *Player) {
	pkt := s.spawnPlayerPacket(p)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, other := range s.clients {
		if other.player == nil || other.player.EntityID == p.EntityID {
			continue
		}
		other.sendPacket(pkt)
	}
}

func (s *Server) spawnOthersForPlayer(c *Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, other := range s.clients {
		if other.player == nil || other.player.EntityID == c.player.EntityID {
			continue
		}
		c.sendPacket(s.spawnPlayerPacket(other.player))
	}
}

func (s *Server) spawnPlayerPacket(p *Player) *protocol.SpawnPlayer {
	x, y, z, yaw, pitch, _ := p.Position()
	return &protocol.SpawnPlayer{
		EntityID:   p.EntityID,
		PlayerUUID: p.UUID,
		X:          x, Y: y, Z: z,
		Yaw:   protocol.AngleFromDegrees(yaw),
		Pitch: protocol.AngleFromDegrees(pitch),
		Metadata: protocol.EncodeMetadata(
			protocol.DefaultPlayerMetadata(20.0, 0x7F),
		),
	}
}
