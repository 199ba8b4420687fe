package server

import (
	"github.com/kittymc-go/kittymc/pkg/chat"
	"github.com/kittymc-go/kittymc/pkg/protocol"
	"github.com/kittymc-go/kittymc/pkg/world"
)

// routePlayPacket is the Play-state routing table spec.md §4.I names,
// one case per serverbound packet this server understands.
func (s *Server) routePlayPacket(c *Client, p *Player, pkt protocol.Packet) {
	switch m := pkt.(type) {
	case *protocol.KeepAliveServerbound:
		c.registerBackbeat()

	case *protocol.PluginMessageServerbound:
		if m.Channel == "minecraft:brand" || m.Channel == "MC|Brand" {
			c.brand = string(m.Data)
		}

	case *protocol.ClientSettings:
		vd := int(m.ViewDistance)
		if vd < 2 {
			vd = 2
		}
		c.viewDistance = vd

	case *protocol.PlayerPosition:
		s.handleMove(c, p, m.X, m.Y, m.Z, 0, 0, m.OnGround, false)

	case *protocol.PlayerPositionAndLook:
		s.handleMove(c, p, m.X, m.Y, m.Z, m.Yaw, m.Pitch, m.OnGround, true)

	case *protocol.PlayerLook:
		s.handleLook(c, p, m.Yaw, m.Pitch, m.OnGround)

	case *protocol.ChatMessageServerbound:
		s.broadcastChat(chat.Colored("<"+p.Username+"> "+m.Message, "white"))

	case *protocol.AnimationServerbound:
		s.broadcast(c.uuid, &protocol.AnimationClientbound{EntityID: p.EntityID, AnimationID: 0})

	case *protocol.PlayerDigging:
		s.handleDigging(c, p, m)

	case *protocol.CreativeInventoryAction:
		p.SetSlot(m.Slot, Slot{ItemID: m.ClickedItem.ItemID, Count: m.ClickedItem.Count, Damage: m.ClickedItem.Damage})

	case *protocol.HeldItemChangeServerbound:
		if m.Slot >= 0 && m.Slot < 9 {
			p.mu.Lock()
			p.HotbarSlot = m.Slot
			p.mu.Unlock()
		}

	case *protocol.PlayerBlockPlacement:
		s.handlePlacement(c, p, m)

	case *protocol.TeleportConfirm:
		// no outstanding teleport bookkeeping to reconcile against.
	}
}

func (s *Server) handleLook(c *Client, p *Player, yaw, pitch float32, onGround bool) {
	x, y, z, _, _, _ := p.Position()
	p.SetPosition(x, y, z, yaw, pitch, onGround)

	s.broadcast(c.uuid, &protocol.EntityLook{
		EntityID: p.EntityID,
		Yaw:      protocol.AngleFromDegrees(yaw),
		Pitch:    protocol.AngleFromDegrees(pitch),
		OnGround: onGround,
	})
	s.broadcast(c.uuid, &protocol.EntityHeadLook{
		EntityID: p.EntityID,
		HeadYaw:  protocol.AngleFromDegrees(yaw),
	})
}

func (s *Server) handleMove(c *Client, p *Player, x, y, z float64, yaw, pitch float32, onGround, hasLook bool) {
	curX, _, curZ, curYaw, curPitch, _ := p.Position()
	if !hasLook {
		yaw, pitch = curYaw, curPitch
	}
	prevX, prevY, prevZ, prevYaw, prevPitch := p.SetPosition(x, y, z, yaw, pitch, onGround)

	dx := int16((x - prevX) * 4096)
	dy := int16((y - prevY) * 4096)
	dz := int16((z - prevZ) * 4096)
	s.broadcast(c.uuid, &protocol.EntityRelativeMove{
		EntityID: p.EntityID, DeltaX: dx, DeltaY: dy, DeltaZ: dz, OnGround: onGround,
	})

	if hasLook && (yaw != prevYaw || pitch != prevPitch) {
		s.broadcast(c.uuid, &protocol.EntityLook{
			EntityID: p.EntityID,
			Yaw:      protocol.AngleFromDegrees(yaw),
			Pitch:    protocol.AngleFromDegrees(pitch),
			OnGround: onGround,
		})
		s.broadcast(c.uuid, &protocol.EntityHeadLook{
			EntityID: p.EntityID,
			HeadYaw:  protocol.AngleFromDegrees(yaw),
		})
	}

	if x != curX || z != curZ {
		c.initialChunksLoaded = s.updateChunks(c, x, z)
	}
}

// handleDigging clears a block the instant digging starts in Creative,
// matching vanilla. Elsewhere there is no server-side progress model
// (tool speed, hardness-to-ticks) at all, so a block only breaks on
// Started if it is on the instant-break list; everything else waits
// for the Finished status the client sends once its own dig timer
// elapses. Spectator and Adventure players can never break blocks;
// Creative and Survival players can, since the "cool"-list privilege
// gate has no configuration mechanism to drive it and has been removed
// outright.
func (s *Server) handleDigging(c *Client, p *Player, m *protocol.PlayerDigging) {
	if p.GameMode == GameModeSpectator || p.GameMode == GameModeAdventure {
		return
	}

	cx, cz := m.X>>4, m.Z>>4
	lx := int(((m.X % 16) + 16) % 16)
	lz := int(((m.Z % 16) + 16) % 16)

	switch m.Status {
	case protocol.DiggingStarted:
		if p.GameMode != GameModeCreative {
			state, ok := s.chunks.GetBlock(world.ChunkPos{X: cx, Z: cz}, lx, int(m.Y), lz)
			if !ok {
				return
			}
			if !world.IsInstantBreak(state >> 4) {
				return
			}
		}
	case protocol.DiggingFinished:
		if p.GameMode == GameModeCreative {
			return
		}
	default:
		return
	}

	if !s.chunks.SetBlock(world.ChunkPos{X: cx, Z: cz}, lx, int(m.Y), lz, 0) {
		return
	}

	s.broadcastBlockChange(m.X, m.Y, m.Z, 0)
	s.broadcast([16]byte{}, &protocol.BlockBreakAnimation{
		EntityID: p.EntityID, X: m.X, Y: m.Y, Z: m.Z, DestroyStage: 0x7F,
	})
}

// faceOffset maps a PlayerBlockPlacement face id to the block-position
// delta from the clicked block to the one about to be placed. These
// names mirror the wire enum, not compass directions.
func faceOffset(face int32) (dx, dy, dz int32) {
	switch face {
	case 0: // top
		return 0, 1, 0
	case 1: // bottom
		return 0, -1, 0
	case 2: // north
		return 0, 0, 1
	case 3: // south
		return 0, 0, -1
	case 4: // west
		return 1, 0, 0
	case 5: // east
		return -1, 0, 0
	default:
		return 0, 0, 0
	}
}

func (s *Server) handlePlacement(c *Client, p *Player, m *protocol.PlayerBlockPlacement) {
	if p.GameMode != GameModeCreative {
		return
	}

	held := p.HeldItem()
	if held.ItemID < 0 || held.ItemID == 0 {
		return
	}

	dx, dy, dz := faceOffset(m.Face)
	tx, ty, tz := m.X+dx, m.Y+dy, m.Z+dz

	state := uint16(held.ItemID)<<4 | uint16(held.Damage&0xF)

	cx, cz := tx>>4, tz>>4
	lx := int(((tx % 16) + 16) % 16)
	lz := int(((tz % 16) + 16) % 16)

	if !s.chunks.SetBlock(world.ChunkPos{X: cx, Z: cz}, lx, int(ty), lz, state) {
		return
	}
	s.broadcastBlockChange(tx, ty, tz, state)
}
