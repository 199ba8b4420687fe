package protocol

import "bytes"

// TeleportConfirm (serverbound 0x00) acknowledges a clientbound
// PlayerPositionAndLook teleport by echoing its TeleportID.
type TeleportConfirm struct {
	TeleportID int32
}

func (TeleportConfirm) ID() int32    { return 0x00 }
func (TeleportConfirm) Name() string { return "TeleportConfirm" }

func decodeTeleportConfirm(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	id, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return &TeleportConfirm{TeleportID: id}, nil
}

// ChatMessageServerbound (serverbound 0x02) is a line of chat typed by
// the player, at most 256 characters.
type ChatMessageServerbound struct {
	Message string
}

func (ChatMessageServerbound) ID() int32    { return 0x02 }
func (ChatMessageServerbound) Name() string { return "ChatMessage" }

func decodeChatMessageServerbound(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	msg, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	return &ChatMessageServerbound{Message: msg}, nil
}

// ClientSettings (serverbound 0x04) carries display/locale preferences;
// only ViewDistance feeds chunk tracking, the rest is recorded but inert.
type ClientSettings struct {
	Locale             string
	ViewDistance       byte
	ChatMode           int32
	ChatColors         bool
	DisplayedSkinParts byte
	MainHand           int32
}

func (ClientSettings) ID() int32    { return 0x04 }
func (ClientSettings) Name() string { return "ClientSettings" }

func decodeClientSettings(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	locale, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	viewDist, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	chatMode, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	chatColors, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	skinParts, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	mainHand, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return &ClientSettings{
		Locale:             locale,
		ViewDistance:       viewDist,
		ChatMode:           chatMode,
		ChatColors:         chatColors,
		DisplayedSkinParts: skinParts,
		MainHand:           mainHand,
	}, nil
}

// PluginMessageServerbound (serverbound 0x09) is an opaque channel
// message; the server only records the client brand sent on the
// "minecraft:brand"/"MC|Brand" channels, there is no plugin-channel
// registry to dispatch into.
type PluginMessageServerbound struct {
	Channel string
	Data    []byte
}

func (PluginMessageServerbound) ID() int32    { return 0x09 }
func (PluginMessageServerbound) Name() string { return "PluginMessage" }

func decodePluginMessageServerbound(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	channel, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil && r.Len() != 0 {
		return nil, err
	}
	return &PluginMessageServerbound{Channel: channel, Data: rest}, nil
}

// KeepAliveServerbound (serverbound 0x0B) echoes a clientbound
// KeepAlive's ID; its absence for 30s marks the connection dead.
type KeepAliveServerbound struct {
	KeepAliveID int64
}

func (KeepAliveServerbound) ID() int32    { return 0x0B }
func (KeepAliveServerbound) Name() string { return "KeepAlive" }

func decodeKeepAliveServerbound(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	id, err := ReadInt64(r)
	if err != nil {
		return nil, err
	}
	return &KeepAliveServerbound{KeepAliveID: id}, nil
}

// PlayerPosition (serverbound 0x0D) updates position only.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

func (PlayerPosition) ID() int32    { return 0x0D }
func (PlayerPosition) Name() string { return "PlayerPosition" }

func decodePlayerPosition(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	x, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	y, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	z, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	onGround, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	return &PlayerPosition{X: x, Y: y, Z: z, OnGround: onGround}, nil
}

// PlayerPositionAndLook (serverbound 0x0E) updates position and facing.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (PlayerPositionAndLook) ID() int32    { return 0x0E }
func (PlayerPositionAndLook) Name() string { return "PlayerPositionAndLook" }

func decodePlayerPositionAndLook(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	x, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	y, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	z, err := ReadFloat64(r)
	if err != nil {
		return nil, err
	}
	yaw, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	pitch, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	onGround, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	return &PlayerPositionAndLook{X: x, Y: y, Z: z, Yaw: yaw, Pitch: pitch, OnGround: onGround}, nil
}

// PlayerLook (serverbound 0x0F) updates facing only.
type PlayerLook struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (PlayerLook) ID() int32    { return 0x0F }
func (PlayerLook) Name() string { return "PlayerLook" }

func decodePlayerLook(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	yaw, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	pitch, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	onGround, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	return &PlayerLook{Yaw: yaw, Pitch: pitch, OnGround: onGround}, nil
}

// DiggingStatus enumerates PlayerDigging's Status field values. The
// server acts only on Started and Finished (no block breaking progress
// to track).
type DiggingStatus int32

const (
	DiggingStarted           DiggingStatus = 0
	DiggingCancelled         DiggingStatus = 1
	DiggingFinished          DiggingStatus = 2
	DiggingDropItemStack     DiggingStatus = 3
	DiggingDropItem          DiggingStatus = 4
	DiggingShootArrowOrFinishEating DiggingStatus = 5
	DiggingSwapItemInHand    DiggingStatus = 6
)

// PlayerDigging (serverbound 0x14) reports a dig-start/finish/cancel or
// one of several unrelated "use the digging packet" actions.
type PlayerDigging struct {
	Status      DiggingStatus
	X, Y, Z     int32
	Face        byte
}

func (PlayerDigging) ID() int32    { return 0x14 }
func (PlayerDigging) Name() string { return "PlayerDigging" }

func decodePlayerDigging(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	status, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	x, y, z, err := ReadPosition(r)
	if err != nil {
		return nil, err
	}
	face, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	return &PlayerDigging{Status: DiggingStatus(status), X: x, Y: y, Z: z, Face: face}, nil
}

// HeldItemChangeServerbound (serverbound 0x1A) reports the hotbar slot
// the player just selected.
type HeldItemChangeServerbound struct {
	Slot int16
}

func (HeldItemChangeServerbound) ID() int32    { return 0x1A }
func (HeldItemChangeServerbound) Name() string { return "HeldItemChange" }

func decodeHeldItemChangeServerbound(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	slot, err := ReadInt16(r)
	if err != nil {
		return nil, err
	}
	return &HeldItemChangeServerbound{Slot: slot}, nil
}

// CreativeSlot is a simplified item slot: ItemID -1 means empty, mirrors
// the protocol's "present" boolean collapsed into a sentinel.
type CreativeSlot struct {
	ItemID int16
	Count  byte
	Damage int16
}

// CreativeInventoryAction (serverbound 0x1B) is a creative-mode direct
// slot write; NBT tags beyond the root end-tag are out of scope (no
// block entities, see Non-goals) so a present item always carries an
// empty compound.
type CreativeInventoryAction struct {
	Slot      int16
	ClickedItem CreativeSlot
	Present   bool
}

func (CreativeInventoryAction) ID() int32    { return 0x1B }
func (CreativeInventoryAction) Name() string { return "CreativeInventoryAction" }

func decodeCreativeInventoryAction(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	slot, err := ReadInt16(r)
	if err != nil {
		return nil, err
	}
	present, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	action := &CreativeInventoryAction{Slot: slot, Present: present}
	if !present {
		action.ClickedItem = CreativeSlot{ItemID: -1}
		return action, nil
	}
	itemID, err := ReadInt16(r)
	if err != nil {
		return nil, err
	}
	count, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	damage, err := ReadInt16(r)
	if err != nil {
		return nil, err
	}
	// Skip the trailing NBT tag: a single 0x00 TAG_End when no block
	// entity data accompanies the item.
	if _, err := ReadByte(r); err != nil {
		return nil, err
	}
	action.ClickedItem = CreativeSlot{ItemID: itemID, Count: count, Damage: damage}
	return action, nil
}

// AnimationServerbound (serverbound 0x1D) is a swing-arm action.
type AnimationServerbound struct {
	Hand int32
}

func (AnimationServerbound) ID() int32    { return 0x1D }
func (AnimationServerbound) Name() string { return "Animation" }

func decodeAnimationServerbound(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	hand, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	return &AnimationServerbound{Hand: hand}, nil
}

// PlayerBlockPlacement (serverbound 0x1F) is a right-click against a
// block face, the trigger for a block-place mutation.
type PlayerBlockPlacement struct {
	X, Y, Z            int32
	Face               int32
	Hand               int32
	CursorX, CursorY, CursorZ float32
}

func (PlayerBlockPlacement) ID() int32    { return 0x1F }
func (PlayerBlockPlacement) Name() string { return "PlayerBlockPlacement" }

func decodePlayerBlockPlacement(data []byte) (Packet, error) {
	r := bytes.NewReader(data)
	x, y, z, err := ReadPosition(r)
	if err != nil {
		return nil, err
	}
	face, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	hand, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	cx, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	cy, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	cz, err := ReadFloat32(r)
	if err != nil {
		return nil, err
	}
	return &PlayerBlockPlacement{
		X: x, Y: y, Z: z,
		Face: face, Hand: hand,
		CursorX: cx, CursorY: cy, CursorZ: cz,
	}, nil
}
