package protocol

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/kittymc-go/kittymc/internal/kerr"
)

// MaxFrameLength bounds the outer varint length field to reject runaway
// allocations from a corrupt or hostile stream (21 bits, vanilla's own
// ceiling for a 3-byte-varint-encoded length).
const MaxFrameLength = 2097151

// Compression holds a connection's negotiated compression setting.
type Compression struct {
	Enabled   bool
	Threshold int
}

// Frame is a single decoded, decompressed packet: its id and the
// remaining field bytes.
type Frame struct {
	ID   int32
	Data []byte
}

// ReadFrame reads one outer length-prefixed frame from r, undoes the
// compression envelope if enabled, and splits off the leading packet id.
// On a partial frame it returns the underlying reader's io.EOF or
// io.ErrUnexpectedEOF unchanged; DecodeNext turns those into
// *kerr.NotEnoughData, which callers driving a non-blocking buffer should
// treat as "wait for more bytes", not a fatal error.
func ReadFrame(r io.Reader, comp Compression) (*Frame, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, &kerr.InvalidPacketLength{Length: length}
	}
	if length > MaxFrameLength {
		return nil, &kerr.InvalidPacketLength{Length: length}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	payload, err := decodeBody(body, comp)
	if err != nil {
		return nil, err
	}

	br := bytes.NewReader(payload)
	id, idLen, err := ReadVarInt(br)
	if err != nil {
		return nil, err
	}
	return &Frame{ID: id, Data: payload[idLen:]}, nil
}

// decodeBody strips the compression envelope (if enabled) from a frame
// body, returning the uncompressed "packet id | fields" payload.
func decodeBody(body []byte, comp Compression) ([]byte, error) {
	if !comp.Enabled {
		return body, nil
	}

	br := bytes.NewReader(body)
	uncompressedLen, n, err := ReadVarInt(br)
	if err != nil {
		return nil, err
	}
	rest := body[n:]

	if uncompressedLen == 0 {
		// Not compressed: rest is the payload as-is.
		return rest, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, &kerr.DecompressionError{Cause: err}
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, &kerr.DecompressionError{Cause: err}
	}
	if len(out) != int(uncompressedLen) {
		return nil, &kerr.InvalidDecompressedPacketLength{Declared: int(uncompressedLen), Actual: len(out)}
	}
	return out, nil
}

// EncodeFrame builds a fully-framed outer packet (length | body) for id
// and fields, applying the compression envelope when comp.Enabled: bodies
// at or above comp.Threshold are zlib-compressed with their true length
// recorded; bodies below it are sent with an uncompressed_length of 0.
func EncodeFrame(id int32, fields []byte, comp Compression) []byte {
	var raw bytes.Buffer
	WriteVarInt(&raw, id)
	raw.Write(fields)
	rawBytes := raw.Bytes()

	var body []byte
	if comp.Enabled {
		body = encodeCompressedBody(rawBytes, comp.Threshold)
	} else {
		body = rawBytes
	}

	var out bytes.Buffer
	WriteVarInt(&out, int32(len(body)))
	out.Write(body)
	return out.Bytes()
}

func encodeCompressedBody(raw []byte, threshold int) []byte {
	var buf bytes.Buffer
	if len(raw) < threshold {
		WriteVarInt(&buf, 0)
		buf.Write(raw)
		return buf.Bytes()
	}

	WriteVarInt(&buf, int32(len(raw)))
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(raw)
	_ = zw.Close()
	return buf.Bytes()
}
