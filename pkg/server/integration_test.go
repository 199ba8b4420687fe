package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kittymc-go/kittymc/pkg/protocol"
	"github.com/kittymc-go/kittymc/pkg/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func handshakeFrame(t *testing.T, protocolVersion int32, next protocol.NextState) []byte {
	t.Helper()
	var fields bytes.Buffer
	_, err := protocol.WriteVarInt(&fields, protocolVersion)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteString(&fields, "localhost"))
	require.NoError(t, protocol.WriteUint16(&fields, 25565))
	_, err = protocol.WriteVarInt(&fields, int32(next))
	require.NoError(t, err)
	return protocol.EncodeFrame(0x00, fields.Bytes(), protocol.Compression{})
}

func statusRequestFrame() []byte {
	return protocol.EncodeFrame(0x00, nil, protocol.Compression{})
}

func statusPingFrame(t *testing.T, payload int64) []byte {
	t.Helper()
	var fields bytes.Buffer
	require.NoError(t, protocol.WriteInt64(&fields, payload))
	return protocol.EncodeFrame(0x01, fields.Bytes(), protocol.Compression{})
}

func loginStartFrame(t *testing.T, name string) []byte {
	t.Helper()
	var fields bytes.Buffer
	require.NoError(t, protocol.WriteString(&fields, name))
	return protocol.EncodeFrame(0x00, fields.Bytes(), protocol.Compression{})
}

// readFrame reads exactly one uncompressed frame off conn, blocking.
func readFrame(t *testing.T, conn net.Conn) *protocol.Frame {
	t.Helper()
	frame, err := protocol.ReadFrame(conn, protocol.Compression{})
	require.NoError(t, err)
	return frame
}

// TestStatusPingPong covers scenario S1: a client that only pings for
// status gets back a StatusResponse then an echoed StatusPong, and the
// connection closes without ever reaching Login.
func TestStatusPingPong(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	srv := New(t.TempDir(), 1, testLogger())
	go srv.handleConnection(serverConn)

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err := clientConn.Write(handshakeFrame(t, protocol.ProtocolVersion, protocol.NextStateStatus))
	require.NoError(t, err)
	_, err = clientConn.Write(statusRequestFrame())
	require.NoError(t, err)

	frame := readFrame(t, clientConn)
	require.Equal(t, int32(0x00), frame.ID)
	resp, err := decodeStringFields(frame.Data)
	require.NoError(t, err)
	require.Contains(t, resp, "\"protocol\":340")

	_, err = clientConn.Write(statusPingFrame(t, 42))
	require.NoError(t, err)

	frame = readFrame(t, clientConn)
	require.Equal(t, int32(0x01), frame.ID)
	payload, err := decodeInt64Fields(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int64(42), payload)
}

// TestLoginWrongVersionDisconnects covers scenario S2: a Login-stage
// handshake declaring the wrong protocol version gets a LoginDisconnect
// and never proceeds to a join sequence.
func TestLoginWrongVersionDisconnects(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	srv := New(t.TempDir(), 1, testLogger())
	go srv.handleConnection(serverConn)

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err := clientConn.Write(handshakeFrame(t, 9999, protocol.NextStateLogin))
	require.NoError(t, err)
	_, err = clientConn.Write(loginStartFrame(t, "will_owo"))
	require.NoError(t, err)

	frame := readFrame(t, clientConn)
	require.Equal(t, int32(0x00), frame.ID)
	reason, err := decodeStringFields(frame.Data)
	require.NoError(t, err)
	require.Contains(t, reason, "wrong version")
}

func decodeStringFields(data []byte) (string, error) {
	return protocol.ReadString(bytes.NewReader(data))
}

func decodeInt64Fields(data []byte) (int64, error) {
	return protocol.ReadInt64(bytes.NewReader(data))
}

func chatMessageFrame(t *testing.T, msg string, comp protocol.Compression) []byte {
	t.Helper()
	var fields bytes.Buffer
	require.NoError(t, protocol.WriteString(&fields, msg))
	return protocol.EncodeFrame(0x02, fields.Bytes(), comp)
}

func playerDiggingFrame(t *testing.T, status int32, x, y, z int32, face byte, comp protocol.Compression) []byte {
	t.Helper()
	var fields bytes.Buffer
	_, err := protocol.WriteVarInt(&fields, status)
	require.NoError(t, err)
	require.NoError(t, protocol.WritePosition(&fields, x, y, z))
	require.NoError(t, protocol.WriteByte(&fields, face))
	return protocol.EncodeFrame(0x14, fields.Bytes(), comp)
}

func creativeInventoryActionFrame(t *testing.T, slot, itemID int16, count byte, comp protocol.Compression) []byte {
	t.Helper()
	var fields bytes.Buffer
	require.NoError(t, protocol.WriteInt16(&fields, slot))
	require.NoError(t, protocol.WriteBool(&fields, true))
	require.NoError(t, protocol.WriteInt16(&fields, itemID))
	require.NoError(t, protocol.WriteByte(&fields, count))
	require.NoError(t, protocol.WriteInt16(&fields, 0))
	require.NoError(t, protocol.WriteByte(&fields, 0)) // TAG_End
	return protocol.EncodeFrame(0x1B, fields.Bytes(), comp)
}

func playerBlockPlacementFrame(t *testing.T, x, y, z, face int32, comp protocol.Compression) []byte {
	t.Helper()
	var fields bytes.Buffer
	require.NoError(t, protocol.WritePosition(&fields, x, y, z))
	_, err := protocol.WriteVarInt(&fields, face)
	require.NoError(t, err)
	_, err = protocol.WriteVarInt(&fields, 0) // main hand
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFloat32(&fields, 0.5))
	require.NoError(t, protocol.WriteFloat32(&fields, 0.5))
	require.NoError(t, protocol.WriteFloat32(&fields, 0.5))
	return protocol.EncodeFrame(0x1F, fields.Bytes(), comp)
}

// loginToPlay drives a connection through Handshake->LoginStart and
// drains the SetCompression/LoginSuccess pair, leaving conn positioned
// at the start of the Play-state join sequence. It returns the
// compression settings the rest of the session now uses.
func loginToPlay(t *testing.T, conn net.Conn, name string) protocol.Compression {
	t.Helper()
	_, err := conn.Write(handshakeFrame(t, protocol.ProtocolVersion, protocol.NextStateLogin))
	require.NoError(t, err)
	_, err = conn.Write(loginStartFrame(t, name))
	require.NoError(t, err)

	frame := readFrame(t, conn)
	require.Equal(t, int32(0x03), frame.ID) // SetCompression

	comp := protocol.Compression{Enabled: true, Threshold: compressionThreshold}
	frame, err = protocol.ReadFrame(conn, comp)
	require.NoError(t, err)
	require.Equal(t, int32(0x02), frame.ID) // LoginSuccess

	return comp
}

// ownJoinFrameCount is how many packets a freshly joined player receives
// before anyone else observes them: the fixed runPlay sequence (11),
// plus the self-inclusive broadcastPlayerListAdd and join-message
// broadcasts (2) that land before any other client's join sequence can
// interleave.
const ownJoinFrameCount = 13

func drainFrames(t *testing.T, conn net.Conn, comp protocol.Compression, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := protocol.ReadFrame(conn, comp)
		require.NoError(t, err)
	}
}

// readUntilID skips frames that don't match wantID, up to maxFrames,
// tolerating unrelated traffic (chunk streaming, other players' state)
// interleaved with the frame under test.
func readUntilID(t *testing.T, conn net.Conn, comp protocol.Compression, wantID int32, maxFrames int) *protocol.Frame {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		frame, err := protocol.ReadFrame(conn, comp)
		require.NoError(t, err)
		if frame.ID == wantID {
			return frame
		}
	}
	t.Fatalf("did not observe frame id 0x%02x within %d frames", wantID, maxFrames)
	return nil
}

func decodePlayerListAddNames(data []byte) ([]string, error) {
	r := bytes.NewReader(data)
	if _, _, err := protocol.ReadVarInt(r); err != nil { // action
		return nil, err
	}
	count, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		if _, err := protocol.ReadUUID(r); err != nil {
			return nil, err
		}
		name, err := protocol.ReadString(r)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if _, _, err := protocol.ReadVarInt(r); err != nil { // properties, always 0
			return nil, err
		}
		if _, _, err := protocol.ReadVarInt(r); err != nil { // gamemode
			return nil, err
		}
		if _, _, err := protocol.ReadVarInt(r); err != nil { // ping
			return nil, err
		}
		if _, err := protocol.ReadBool(r); err != nil { // display name flag
			return nil, err
		}
	}
	return names, nil
}

func decodeBlockChange(data []byte) (x, y, z, blockID int32, err error) {
	r := bytes.NewReader(data)
	x, y, z, err = protocol.ReadPosition(r)
	if err != nil {
		return
	}
	blockID, _, err = protocol.ReadVarInt(r)
	return
}

func decodeBlockBreakAnimation(data []byte) (entityID, x, y, z int32, stage byte, err error) {
	r := bytes.NewReader(data)
	entityID, _, err = protocol.ReadVarInt(r)
	if err != nil {
		return
	}
	x, y, z, err = protocol.ReadPosition(r)
	if err != nil {
		return
	}
	stage, err = protocol.ReadByte(r)
	return
}

// TestTwoClientChatBroadcast covers scenario S3: a second player's join
// is observed by the first as a tab-list add, a join message, and a
// spawn, and a chat line from the second player reaches both.
func TestTwoClientChatBroadcast(t *testing.T) {
	srv := New(t.TempDir(), 1, testLogger())

	aConn, aServerConn := net.Pipe()
	defer aConn.Close()
	go srv.handleConnection(aServerConn)
	aConn.SetDeadline(time.Now().Add(2 * time.Second))
	compA := loginToPlay(t, aConn, "alice")
	drainFrames(t, aConn, compA, ownJoinFrameCount)

	bConn, bServerConn := net.Pipe()
	defer bConn.Close()
	go srv.handleConnection(bServerConn)
	bConn.SetDeadline(time.Now().Add(2 * time.Second))
	compB := loginToPlay(t, bConn, "bob")
	drainFrames(t, bConn, compB, ownJoinFrameCount)

	frame := readUntilID(t, aConn, compA, 0x2E, 10) // PlayerListItemAdd for bob
	names, err := decodePlayerListAddNames(frame.Data)
	require.NoError(t, err)
	require.Contains(t, names, "bob")

	frame = readUntilID(t, aConn, compA, 0x0F, 10) // join chat message
	text, err := decodeStringFields(frame.Data)
	require.NoError(t, err)
	require.Contains(t, text, "bob joined the game")

	readUntilID(t, aConn, compA, 0x05, 10) // SpawnPlayer for bob

	chatFrame := chatMessageFrame(t, "hi", compB)
	go func() { bConn.Write(chatFrame) }()

	frame = readUntilID(t, aConn, compA, 0x0F, 10)
	text, err = decodeStringFields(frame.Data)
	require.NoError(t, err)
	require.Contains(t, text, "<bob> hi")

	frame = readUntilID(t, bConn, compB, 0x0F, 10) // bob also sees his own message
	text, err = decodeStringFields(frame.Data)
	require.NoError(t, err)
	require.Contains(t, text, "<bob> hi")
}

// loadChunkForTest runs the chunk manager's workers against srv and
// blocks until the given position is resident, so a test can mutate a
// block without racing generation.
func loadChunkForTest(t *testing.T, srv *Server, pos world.ChunkPos) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go srv.chunks.Run(ctx)
	srv.chunks.Request(pos, world.PriorityHigh)
	require.Eventually(t, func() bool {
		_, ready := srv.chunks.Get(pos)
		return ready
	}, 2*time.Second, 5*time.Millisecond)
	return cancel
}

// TestCreativeDigBroadcastsBlockChange covers scenario S4: a creative
// player's dig-start clears the block and fans out BlockChange plus a
// full-stage BlockBreakAnimation.
func TestCreativeDigBroadcastsBlockChange(t *testing.T) {
	srv := New(t.TempDir(), 1, testLogger())
	cancel := loadChunkForTest(t, srv, world.ChunkPos{X: 0, Z: 0})
	defer cancel()

	conn, serverConn := net.Pipe()
	defer conn.Close()
	go srv.handleConnection(serverConn)
	conn.SetDeadline(time.Now().Add(20 * time.Second))
	comp := loginToPlay(t, conn, "digger")
	drainFrames(t, conn, comp, ownJoinFrameCount)

	digFrame := playerDiggingFrame(t, int32(protocol.DiggingStarted), 8, 4, 8, 1, comp)
	go func() { conn.Write(digFrame) }()

	frame := readUntilID(t, conn, comp, 0x0B, 2000) // BlockChange
	x, y, z, blockID, err := decodeBlockChange(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int32(8), x)
	require.Equal(t, int32(4), y)
	require.Equal(t, int32(8), z)
	require.Equal(t, int32(0), blockID)

	frame = readUntilID(t, conn, comp, 0x08, 50) // BlockBreakAnimation
	_, bx, by, bz, stage, err := decodeBlockBreakAnimation(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int32(8), bx)
	require.Equal(t, int32(4), by)
	require.Equal(t, int32(8), bz)
	require.Equal(t, byte(0x7F), stage)
}

// survivalizeOnlyPlayer flips the single connected player's gamemode to
// Survival, for tests exercising the instant-break gate that only
// applies outside Creative.
func survivalizeOnlyPlayer(t *testing.T, srv *Server) {
	t.Helper()
	srv.mu.Lock()
	defer srv.mu.Unlock()
	for _, p := range srv.players {
		p.GameMode = GameModeSurvival
	}
}

// TestSurvivalDigWaitsForFinishedOnNonInstantBlock covers the
// handleDigging gate: a Survival player's Started status on a block
// that isn't on the instant-break list must not clear it, and the
// matching Finished status must.
func TestSurvivalDigWaitsForFinishedOnNonInstantBlock(t *testing.T) {
	srv := New(t.TempDir(), 1, testLogger())
	cancel := loadChunkForTest(t, srv, world.ChunkPos{X: 0, Z: 0})
	defer cancel()

	conn, serverConn := net.Pipe()
	defer conn.Close()
	go srv.handleConnection(serverConn)
	conn.SetDeadline(time.Now().Add(20 * time.Second))
	comp := loginToPlay(t, conn, "surv_digger")
	drainFrames(t, conn, comp, ownJoinFrameCount)
	survivalizeOnlyPlayer(t, srv)

	// (8, 4, 8) sits in the flat world's grass layer, not on the
	// instant-break list.
	startFrame := playerDiggingFrame(t, int32(protocol.DiggingStarted), 8, 4, 8, 1, comp)
	go func() { conn.Write(startFrame) }()

	// Chunk data for the spawn area may still be streaming; read until the
	// server has been silent for 200ms and require that none of what
	// arrived was a BlockChange.
	var err error
	for {
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		var f *protocol.Frame
		if f, err = protocol.ReadFrame(conn, comp); err != nil {
			break
		}
		require.NotEqual(t, int32(0x0B), f.ID, "Started on a non-instant-break block must not broadcast BlockChange")
	}
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	conn.SetReadDeadline(time.Now().Add(20 * time.Second))

	finishFrame := playerDiggingFrame(t, int32(protocol.DiggingFinished), 8, 4, 8, 1, comp)
	go func() { conn.Write(finishFrame) }()

	frame := readUntilID(t, conn, comp, 0x0B, 2000) // BlockChange
	x, y, z, blockID, err := decodeBlockChange(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int32(8), x)
	require.Equal(t, int32(4), y)
	require.Equal(t, int32(8), z)
	require.Equal(t, int32(0), blockID)
}

// TestSurvivalDigBreaksInstantBlockOnStarted covers the other side of
// the gate: a block on the instant-break list clears on Started alone.
func TestSurvivalDigBreaksInstantBlockOnStarted(t *testing.T) {
	srv := New(t.TempDir(), 1, testLogger())
	cancel := loadChunkForTest(t, srv, world.ChunkPos{X: 0, Z: 0})
	defer cancel()

	torch := uint16(50) << 4
	require.True(t, srv.chunks.SetBlock(world.ChunkPos{X: 0, Z: 0}, 9, 5, 9, torch))

	conn, serverConn := net.Pipe()
	defer conn.Close()
	go srv.handleConnection(serverConn)
	conn.SetDeadline(time.Now().Add(20 * time.Second))
	comp := loginToPlay(t, conn, "surv_torch")
	drainFrames(t, conn, comp, ownJoinFrameCount)
	survivalizeOnlyPlayer(t, srv)

	digFrame := playerDiggingFrame(t, int32(protocol.DiggingStarted), 9, 5, 9, 1, comp)
	go func() { conn.Write(digFrame) }()

	frame := readUntilID(t, conn, comp, 0x0B, 2000) // BlockChange
	x, y, z, blockID, err := decodeBlockChange(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int32(9), x)
	require.Equal(t, int32(5), y)
	require.Equal(t, int32(9), z)
	require.Equal(t, int32(0), blockID)
}

// TestCreativePlacementUsesHeldItem covers scenario S6: setting a
// hotbar slot via CreativeInventoryAction, then placing against an
// existing block, writes the held item's id/damage into the offset the
// clicked face implies.
func TestCreativePlacementUsesHeldItem(t *testing.T) {
	srv := New(t.TempDir(), 1, testLogger())
	cancel := loadChunkForTest(t, srv, world.ChunkPos{X: 0, Z: 0})
	defer cancel()

	conn, serverConn := net.Pipe()
	defer conn.Close()
	go srv.handleConnection(serverConn)
	conn.SetDeadline(time.Now().Add(20 * time.Second))
	comp := loginToPlay(t, conn, "builder")
	drainFrames(t, conn, comp, ownJoinFrameCount)

	invFrame := creativeInventoryActionFrame(t, 36, 1, 1, comp) // hotbar slot 0 <- item id 1
	go func() { conn.Write(invFrame) }()
	time.Sleep(50 * time.Millisecond)

	placeFrame := playerBlockPlacementFrame(t, 8, 4, 8, 0, comp) // face 0 (top) against (8,4,8)
	go func() { conn.Write(placeFrame) }()

	frame := readUntilID(t, conn, comp, 0x0B, 2000) // BlockChange
	x, y, z, blockID, err := decodeBlockChange(frame.Data)
	require.NoError(t, err)
	require.Equal(t, int32(8), x)
	require.Equal(t, int32(5), y) // top face offset: +1 on y
	require.Equal(t, int32(8), z)
	require.Equal(t, int32(1<<4), blockID) // item id 1, damage 0
}

// TestKeepAliveTimeoutClosesConnection covers scenario property 12: a
// client that never answers KeepAlive is dropped once the trailing
// silence window exceeds keepAliveTimeout. The peer drains every ping
// so sendPacket never blocks, but never calls registerBackbeat, so the
// clock that matters — time since the last reply — only ever grows.
func TestKeepAliveTimeoutClosesConnection(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	c := newClient(serverConn, testLogger())

	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := clientConn.Read(buf); err != nil {
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		c.runKeepAlive(make(chan struct{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(keepAliveTimeout + keepAliveInterval*2):
		t.Fatal("runKeepAlive did not close an unresponsive connection within the timeout window")
	}
}
