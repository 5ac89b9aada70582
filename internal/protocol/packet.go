package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// MaxPacketLength bounds a single packet's payload, guarding against a
// malformed or hostile length prefix forcing an unbounded allocation.
const MaxPacketLength = 2097151 // max 3-byte VarInt

// Packet is a framed, length-prefixed message: a VarInt message Type
// followed by a type-specific payload.
type Packet struct {
	Type int32
	Data []byte
}

// ReadPacket reads one full packet from r.
func ReadPacket(r io.Reader) (*Packet, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("packet length too small: %d", length)
	}
	if length > MaxPacketLength {
		return nil, fmt.Errorf("packet length too large: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	pr := bytes.NewReader(payload)
	msgType, typeLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, err
	}

	return &Packet{
		Type: msgType,
		Data: payload[typeLen:],
	}, nil
}

// WritePacket writes a full packet to w in a single buffered write.
func WritePacket(w io.Writer, p *Packet) error {
	typeSize := VarIntSize(p.Type)
	totalLen := int32(typeSize + len(p.Data))

	buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(totalLen)+int(totalLen)))
	if _, err := WriteVarInt(buf, totalLen); err != nil {
		return err
	}
	if _, err := WriteVarInt(buf, p.Type); err != nil {
		return err
	}
	buf.Write(p.Data)

	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalPacket builds a Packet of the given message type from a
// builder function writing the payload.
func MarshalPacket(msgType int32, builder func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	builder(&buf)
	return &Packet{
		Type: msgType,
		Data: buf.Bytes(),
	}
}
