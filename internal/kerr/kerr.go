// Package kerr enumerates the error kinds the server's components can
// raise, per the fatal/recoverable policy each call site enforces.
package kerr

import "fmt"

// NotEnoughData means the receive buffer holds a partial frame. Recoverable:
// the caller should wait for more bytes before decoding again.
type NotEnoughData struct {
	Have, Need int
}

func (e *NotEnoughData) Error() string {
	return fmt.Sprintf("not enough data: have %d, need %d", e.Have, e.Need)
}

// NotImplemented means the packet id is unknown under the current
// connection state. Recoverable: the caller skips FrameLen bytes and
// continues.
type NotImplemented struct {
	ID       int32
	FrameLen int
}

func (e *NotImplemented) Error() string {
	return fmt.Sprintf("packet id 0x%02x not implemented in this state (frame len %d)", e.ID, e.FrameLen)
}

// NotEnoughBytes means a packet body was malformed (shorter than its
// declared fields). Fatal for the connection.
type NotEnoughBytes struct {
	Kind       string
	Need, Have int
}

func (e *NotEnoughBytes) Error() string {
	return fmt.Sprintf("not enough bytes to deserialize %s: need %d, have %d", e.Kind, e.Need, e.Have)
}

// VarDecode means a varint never terminated within its maximum width.
// Fatal for the connection.
type VarDecode struct {
	Kind string
}

func (e *VarDecode) Error() string {
	return fmt.Sprintf("could not decode varint of kind %s", e.Kind)
}

// StringDecode means a length-prefixed string was not valid UTF-8.
// Fatal for the connection.
type StringDecode struct {
	Cause error
}

func (e *StringDecode) Error() string { return fmt.Sprintf("invalid utf-8 string: %v", e.Cause) }
func (e *StringDecode) Unwrap() error { return e.Cause }

// InvalidPacketLength means the outer varint length was under the
// minimum frame header size, or otherwise nonsensical. Fatal.
type InvalidPacketLength struct {
	Length int32
}

func (e *InvalidPacketLength) Error() string {
	return fmt.Sprintf("invalid packet length: %d", e.Length)
}

// DecompressionError wraps a zlib inflate failure. Fatal.
type DecompressionError struct {
	Cause error
}

func (e *DecompressionError) Error() string { return fmt.Sprintf("decompression failed: %v", e.Cause) }
func (e *DecompressionError) Unwrap() error { return e.Cause }

// InvalidDecompressedPacketLength means the inflated byte count didn't
// match the declared uncompressed length. Fatal.
type InvalidDecompressedPacketLength struct {
	Declared, Actual int
}

func (e *InvalidDecompressedPacketLength) Error() string {
	return fmt.Sprintf("decompressed length mismatch: declared %d, actual %d", e.Declared, e.Actual)
}

// VersionMismatch means a Login-stage handshake declared a protocol
// version other than 340. Fatal: a Disconnect is sent first.
type VersionMismatch struct {
	Got, Want int32
}

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("protocol version mismatch: got %d, want %d", e.Got, e.Want)
}

// ClientNotFound means an operation referenced a uuid with no
// corresponding live connection. Logged; the operation is dropped.
type ClientNotFound struct {
	UUID string
}

func (e *ClientNotFound) Error() string { return fmt.Sprintf("client not found: %s", e.UUID) }

// PlayerNotFound means an operation referenced a uuid with no
// corresponding player. Logged; the operation is dropped.
type PlayerNotFound struct {
	UUID string
}

func (e *PlayerNotFound) Error() string { return fmt.Sprintf("player not found: %s", e.UUID) }

// InventoryError covers malformed slot indices or slot contents. Logged;
// the operation is dropped.
type InventoryError struct {
	Slot int
	Msg  string
}

func (e *InventoryError) Error() string { return fmt.Sprintf("inventory error at slot %d: %s", e.Slot, e.Msg) }

// InvalidChunk means a chunk position was referenced that isn't loaded.
// Logged; the operation is dropped.
type InvalidChunk struct {
	X, Z int32
}

func (e *InvalidChunk) Error() string { return fmt.Sprintf("chunk (%d, %d) is not loaded", e.X, e.Z) }

// InvalidBlock means a world-block coordinate was out of the vertical
// [0,255] range or otherwise unaddressable. Logged; dropped.
type InvalidBlock struct {
	X, Y, Z int32
}

func (e *InvalidBlock) Error() string {
	return fmt.Sprintf("invalid block position (%d, %d, %d)", e.X, e.Y, e.Z)
}

// Disconnected means the peer closed the connection cleanly. Clean
// teardown, no warning logged.
type Disconnected struct{}

func (e *Disconnected) Error() string { return "peer disconnected" }

// LockPoison/ThreadError equivalent: a chunk generator worker recovered
// from a panic. The manager logs it and keeps serving; the worker goes
// on with its next queued chunk.
type WorkerPanic struct {
	Recovered any
}

func (e *WorkerPanic) Error() string { return fmt.Sprintf("worker panic: %v", e.Recovered) }
