package protocol

import (
	"bytes"
	"io"
)

// JoinGame (clientbound 0x23) is the first Play packet, establishing
// the joining player's entity id and the (single, fixed) world's rules.
type JoinGame struct {
	EntityID         int32
	Gamemode         byte
	Dimension        int32
	Difficulty       byte
	MaxPlayers       byte
	LevelType        string
	ReducedDebugInfo bool
}

func (JoinGame) ID() int32    { return 0x23 }
func (JoinGame) Name() string { return "JoinGame" }

func (p *JoinGame) EncodeFields(w io.Writer) {
	WriteInt32(w, p.EntityID)
	WriteByte(w, p.Gamemode)
	WriteInt32(w, p.Dimension)
	WriteByte(w, p.Difficulty)
	WriteByte(w, p.MaxPlayers)
	WriteString(w, p.LevelType)
	WriteBool(w, p.ReducedDebugInfo)
}

// PluginMessageClientbound (clientbound 0x18) carries the server-brand
// announcement sent right after JoinGame, and any other channel data.
type PluginMessageClientbound struct {
	Channel string
	Data    []byte
}

func (PluginMessageClientbound) ID() int32    { return 0x18 }
func (PluginMessageClientbound) Name() string { return "PluginMessage" }

func (p *PluginMessageClientbound) EncodeFields(w io.Writer) {
	WriteString(w, p.Channel)
	w.Write(p.Data)
}

// NewBrandMessage builds the "minecraft:brand" plugin message identifying
// this server as vanilla, per the join sequence's External Interfaces.
func NewBrandMessage(brand string) *PluginMessageClientbound {
	var buf bytes.Buffer
	WriteString(&buf, brand)
	return &PluginMessageClientbound{Channel: "minecraft:brand", Data: buf.Bytes()}
}

// ServerDifficulty (clientbound 0x0D) announces the fixed difficulty.
type ServerDifficulty struct {
	Difficulty byte
}

func (ServerDifficulty) ID() int32    { return 0x0D }
func (ServerDifficulty) Name() string { return "ServerDifficulty" }

func (p *ServerDifficulty) EncodeFields(w io.Writer) {
	WriteByte(w, p.Difficulty)
}

// PlayerAbilities (clientbound 0x2C) carries fly/godmode flags; with no
// survival mechanics (combat, hunger) in scope, these mirror Gamemode.
type PlayerAbilities struct {
	Flags         byte
	FlyingSpeed   float32
	FOVModifier   float32
}

func (PlayerAbilities) ID() int32    { return 0x2C }
func (PlayerAbilities) Name() string { return "PlayerAbilities" }

func (p *PlayerAbilities) EncodeFields(w io.Writer) {
	WriteByte(w, p.Flags)
	WriteFloat32(w, p.FlyingSpeed)
	WriteFloat32(w, p.FOVModifier)
}

// HeldItemChangeClientbound (clientbound 0x3A) sets the client's
// selected hotbar slot on join.
type HeldItemChangeClientbound struct {
	Slot byte
}

func (HeldItemChangeClientbound) ID() int32    { return 0x3A }
func (HeldItemChangeClientbound) Name() string { return "HeldItemChange" }

func (p *HeldItemChangeClientbound) EncodeFields(w io.Writer) {
	WriteByte(w, p.Slot)
}

// EntityStatus (clientbound 0x1B) triggers a client-side visual/sound
// cue keyed by a status byte (e.g. break-block particles).
type EntityStatus struct {
	EntityID     int32
	EntityStatus byte
}

func (EntityStatus) ID() int32    { return 0x1B }
func (EntityStatus) Name() string { return "EntityStatus" }

func (p *EntityStatus) EncodeFields(w io.Writer) {
	WriteInt32(w, p.EntityID)
	WriteByte(w, p.EntityStatus)
}

// UnlockRecipes (clientbound 0x31) is sent once at join with empty
// recipe-book lists; there is no crafting-recipe system in scope.
type UnlockRecipes struct{}

func (UnlockRecipes) ID() int32    { return 0x31 }
func (UnlockRecipes) Name() string { return "UnlockRecipes" }

func (p *UnlockRecipes) EncodeFields(w io.Writer) {
	WriteVarInt(w, 0) // action: init
	WriteBool(w, false)
	WriteBool(w, false)
	WriteBool(w, false)
	WriteBool(w, false)
	WriteVarInt(w, 0) // recipe ids (first list)
	WriteVarInt(w, 0) // recipe ids (second list, init only)
}

// PlayerListEntry is one row of a PlayerListItem Add action.
type PlayerListEntry struct {
	UUID        [16]byte
	Name        string
	Gamemode    int32
	Ping        int32
	DisplayName bool // always false: no custom tab-list display names
}

// PlayerListItemAdd (clientbound 0x2E, action 0) adds one or more rows
// to every connected client's tab list.
type PlayerListItemAdd struct {
	Entries []PlayerListEntry
}

func (PlayerListItemAdd) ID() int32    { return 0x2E }
func (PlayerListItemAdd) Name() string { return "PlayerListItem(Add)" }

func (p *PlayerListItemAdd) EncodeFields(w io.Writer) {
	WriteVarInt(w, 0) // action: add player
	WriteVarInt(w, int32(len(p.Entries)))
	for _, e := range p.Entries {
		WriteUUID(w, e.UUID)
		WriteString(w, e.Name)
		WriteVarInt(w, 0) // zero properties (no skin/cape textures)
		WriteVarInt(w, e.Gamemode)
		WriteVarInt(w, e.Ping)
		WriteBool(w, e.DisplayName)
	}
}

// PlayerListItemRemove (clientbound 0x2E, action 4) removes rows.
type PlayerListItemRemove struct {
	UUIDs [][16]byte
}

func (PlayerListItemRemove) ID() int32    { return 0x2E }
func (PlayerListItemRemove) Name() string { return "PlayerListItem(Remove)" }

func (p *PlayerListItemRemove) EncodeFields(w io.Writer) {
	WriteVarInt(w, 4) // action: remove player
	WriteVarInt(w, int32(len(p.UUIDs)))
	for _, u := range p.UUIDs {
		WriteUUID(w, u)
	}
}

// PlayerListItemUpdateGamemode (clientbound 0x2E, action 1) updates a
// row's reported gamemode without touching its name/ping.
type PlayerListItemUpdateGamemode struct {
	UUID     [16]byte
	Gamemode int32
}

func (PlayerListItemUpdateGamemode) ID() int32    { return 0x2E }
func (PlayerListItemUpdateGamemode) Name() string { return "PlayerListItem(UpdateGamemode)" }

func (p *PlayerListItemUpdateGamemode) EncodeFields(w io.Writer) {
	WriteVarInt(w, 1) // action: update gamemode
	WriteVarInt(w, 1)
	WriteUUID(w, p.UUID)
	WriteVarInt(w, p.Gamemode)
}

// PlayerPositionAndLookClientbound (clientbound 0x2F) is a forced
// teleport; the client must reply with TeleportConfirm carrying
// TeleportID.
type PlayerPositionAndLookClientbound struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      byte
	TeleportID int32
}

func (PlayerPositionAndLookClientbound) ID() int32    { return 0x2F }
func (PlayerPositionAndLookClientbound) Name() string { return "PlayerPositionAndLook" }

func (p *PlayerPositionAndLookClientbound) EncodeFields(w io.Writer) {
	WriteFloat64(w, p.X)
	WriteFloat64(w, p.Y)
	WriteFloat64(w, p.Z)
	WriteFloat32(w, p.Yaw)
	WriteFloat32(w, p.Pitch)
	WriteByte(w, p.Flags)
	WriteVarInt(w, p.TeleportID)
}

// TimeUpdate (clientbound 0x47) drives the client's day/night cycle.
type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

func (TimeUpdate) ID() int32    { return 0x47 }
func (TimeUpdate) Name() string { return "TimeUpdate" }

func (p *TimeUpdate) EncodeFields(w io.Writer) {
	WriteInt64(w, p.WorldAge)
	WriteInt64(w, p.TimeOfDay)
}

// SpawnPosition (clientbound 0x46) sets the compass/bed spawn point.
type SpawnPosition struct {
	X, Y, Z int32
}

func (SpawnPosition) ID() int32    { return 0x46 }
func (SpawnPosition) Name() string { return "SpawnPosition" }

func (p *SpawnPosition) EncodeFields(w io.Writer) {
	WritePosition(w, p.X, p.Y, p.Z)
}

// ChunkData (clientbound 0x20) streams one chunk column's block and
// light data. Data is the already bit-packed section payload produced
// by the world package's chunk encoder.
type ChunkData struct {
	X, Z               int32
	GroundUpContinuous bool
	PrimaryBitMask     int32
	Data               []byte
	Biomes             []byte // only written when GroundUpContinuous
}

func (ChunkData) ID() int32    { return 0x20 }
func (ChunkData) Name() string { return "ChunkData" }

func (p *ChunkData) EncodeFields(w io.Writer) {
	WriteInt32(w, p.X)
	WriteInt32(w, p.Z)
	WriteBool(w, p.GroundUpContinuous)
	WriteVarInt(w, p.PrimaryBitMask)

	var body []byte
	body = append(body, p.Data...)
	if p.GroundUpContinuous {
		body = append(body, p.Biomes...)
	}
	WriteVarInt(w, int32(len(body)))
	w.Write(body)
	WriteVarInt(w, 0) // block entities: none (no NBT block entities in scope)
}

// NewUnloadChunk builds the empty-column ChunkData frame protocol 340
// uses to unload a chunk column (there is no dedicated UnloadChunk
// packet until protocol 477): ground_up_continuous true, an empty mask,
// zero section bytes, and the 256-byte biome array the client still
// expects for a full column.
func NewUnloadChunk(x, z int32) *ChunkData {
	return &ChunkData{
		X:                  x,
		Z:                  z,
		GroundUpContinuous: true,
		PrimaryBitMask:     0,
		Data:               nil,
		Biomes:             make([]byte, 256),
	}
}

// KeepAliveClientbound (clientbound 0x1F) is the server's half of the
// liveness probe; if no KeepAliveServerbound reply arrives within 30s,
// the connection is torn down. Any reply counts; its id is not compared.
type KeepAliveClientbound struct {
	KeepAliveID int64
}

func (KeepAliveClientbound) ID() int32    { return 0x1F }
func (KeepAliveClientbound) Name() string { return "KeepAlive" }

func (p *KeepAliveClientbound) EncodeFields(w io.Writer) {
	WriteInt64(w, p.KeepAliveID)
}

// ChatPosition selects where a ChatMessageClientbound renders.
type ChatPosition byte

const (
	ChatPositionChat       ChatPosition = 0
	ChatPositionSystem     ChatPosition = 1
	ChatPositionGameInfo   ChatPosition = 2
)

// ChatMessageClientbound (clientbound 0x0F) delivers a chat/system line.
type ChatMessageClientbound struct {
	JSONData string
	Position ChatPosition
}

func (ChatMessageClientbound) ID() int32    { return 0x0F }
func (ChatMessageClientbound) Name() string { return "ChatMessage" }

func (p *ChatMessageClientbound) EncodeFields(w io.Writer) {
	WriteString(w, p.JSONData)
	WriteByte(w, byte(p.Position))
}

// DisconnectPlay (clientbound 0x1A) ends the connection during Play.
type DisconnectPlay struct {
	Reason string
}

func (DisconnectPlay) ID() int32    { return 0x1A }
func (DisconnectPlay) Name() string { return "Disconnect" }

func (p *DisconnectPlay) EncodeFields(w io.Writer) {
	WriteString(w, p.Reason)
}

// BlockChange (clientbound 0x0B) announces a single block mutation.
type BlockChange struct {
	X, Y, Z int32
	BlockID int32
}

func (BlockChange) ID() int32    { return 0x0B }
func (BlockChange) Name() string { return "BlockChange" }

func (p *BlockChange) EncodeFields(w io.Writer) {
	WritePosition(w, p.X, p.Y, p.Z)
	WriteVarInt(w, p.BlockID)
}

// BlockBreakAnimation (clientbound 0x08) drives the crack-texture
// overlay while a block is being dug; DestroyStage 10 clears it.
type BlockBreakAnimation struct {
	EntityID     int32
	X, Y, Z      int32
	DestroyStage byte
}

func (BlockBreakAnimation) ID() int32    { return 0x08 }
func (BlockBreakAnimation) Name() string { return "BlockBreakAnimation" }

func (p *BlockBreakAnimation) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WritePosition(w, p.X, p.Y, p.Z)
	WriteByte(w, p.DestroyStage)
}

// EntityRelativeMove (clientbound 0x26) is a small-delta position
// update (deltas are in 1/4096ths of a block, per vanilla's encoding).
type EntityRelativeMove struct {
	EntityID             int32
	DeltaX, DeltaY, DeltaZ int16
	OnGround             bool
}

func (EntityRelativeMove) ID() int32    { return 0x26 }
func (EntityRelativeMove) Name() string { return "EntityRelativeMove" }

func (p *EntityRelativeMove) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WriteInt16(w, p.DeltaX)
	WriteInt16(w, p.DeltaY)
	WriteInt16(w, p.DeltaZ)
	WriteBool(w, p.OnGround)
}

// EntityLook (clientbound 0x28) updates an entity's body facing.
type EntityLook struct {
	EntityID   int32
	Yaw, Pitch Angle
	OnGround   bool
}

func (EntityLook) ID() int32    { return 0x28 }
func (EntityLook) Name() string { return "EntityLook" }

func (p *EntityLook) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WriteAngle(w, p.Yaw)
	WriteAngle(w, p.Pitch)
	WriteBool(w, p.OnGround)
}

// EntityHeadLook (clientbound 0x36) updates an entity's head facing
// independently of its body (sent alongside EntityLook on rotation).
type EntityHeadLook struct {
	EntityID int32
	HeadYaw  Angle
}

func (EntityHeadLook) ID() int32    { return 0x36 }
func (EntityHeadLook) Name() string { return "EntityHeadLook" }

func (p *EntityHeadLook) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WriteAngle(w, p.HeadYaw)
}

// AnimationClientbound (clientbound 0x06) replays a swing/hurt/etc.
// animation on every other client.
type AnimationClientbound struct {
	EntityID    int32
	AnimationID byte
}

func (AnimationClientbound) ID() int32    { return 0x06 }
func (AnimationClientbound) Name() string { return "Animation" }

func (p *AnimationClientbound) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WriteByte(w, p.AnimationID)
}

// SpawnPlayer (clientbound 0x05) introduces another player entity to a
// client; Metadata is a pre-encoded entity metadata stream (terminator
// included) from the metadata package.
type SpawnPlayer struct {
	EntityID   int32
	PlayerUUID [16]byte
	X, Y, Z    float64
	Yaw, Pitch Angle
	Metadata   []byte
}

func (SpawnPlayer) ID() int32    { return 0x05 }
func (SpawnPlayer) Name() string { return "SpawnPlayer" }

func (p *SpawnPlayer) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	WriteUUID(w, p.PlayerUUID)
	WriteFloat64(w, p.X)
	WriteFloat64(w, p.Y)
	WriteFloat64(w, p.Z)
	WriteAngle(w, p.Yaw)
	WriteAngle(w, p.Pitch)
	w.Write(p.Metadata)
}

// DestroyEntities (clientbound 0x32) removes one or more entities from
// a client's view.
type DestroyEntities struct {
	EntityIDs []int32
}

func (DestroyEntities) ID() int32    { return 0x32 }
func (DestroyEntities) Name() string { return "DestroyEntities" }

func (p *DestroyEntities) EncodeFields(w io.Writer) {
	WriteVarInt(w, int32(len(p.EntityIDs)))
	for _, id := range p.EntityIDs {
		WriteVarInt(w, id)
	}
}

// EntityMetadataPacket (clientbound 0x3C) pushes an updated metadata
// stream for one entity (e.g. after a skin-parts or pose change).
type EntityMetadataPacket struct {
	EntityID int32
	Metadata []byte
}

func (EntityMetadataPacket) ID() int32    { return 0x3C }
func (EntityMetadataPacket) Name() string { return "EntityMetadata" }

func (p *EntityMetadataPacket) EncodeFields(w io.Writer) {
	WriteVarInt(w, p.EntityID)
	w.Write(p.Metadata)
}
