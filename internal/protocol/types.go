// Package protocol is the wire codec and message set between client
// and server: VarInt/VarLong/string/primitive encoding and
// length-prefixed packet framing, generalized from a Minecraft-specific
// codec into the conceptual message set this terrain core actually
// needs. The exact binary schema (capnp-style in the original) is an
// external collaborator's concern beyond this package's job, which is
// only to give every message in the set a concrete encode/decode pair.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ReadVarInt reads a variable-length integer from the reader. VarInts
// are at most 5 bytes.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result int32
	var numRead int
	buf := make([]byte, 1)
	for {
		_, err := io.ReadFull(r, buf)
		if err != nil {
			return 0, numRead, err
		}
		b := buf[0]
		result |= int32(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > 5 {
			return 0, numRead, fmt.Errorf("VarInt is too big")
		}
		if (b & 0x80) == 0 {
			break
		}
	}
	return result, numRead, nil
}

// WriteVarInt writes a variable-length integer to the writer.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes a VarInt into buf and returns the number of bytes
// written.
func PutVarInt(buf []byte, value int32) int {
	uval := uint32(value)
	n := 0
	for {
		if (uval & ^uint32(0x7F)) == 0 {
			buf[n] = byte(uval)
			n++
			return n
		}
		buf[n] = byte(uval&0x7F) | 0x80
		n++
		uval >>= 7
	}
}

// VarIntSize returns the number of bytes needed to encode value.
func VarIntSize(value int32) int {
	uval := uint32(value)
	size := 0
	for {
		size++
		if (uval & ^uint32(0x7F)) == 0 {
			return size
		}
		uval >>= 7
	}
}

// ReadVarLong reads a variable-length 64-bit integer from the reader.
func ReadVarLong(r io.Reader) (int64, int, error) {
	var result int64
	var numRead int
	buf := make([]byte, 1)
	for {
		_, err := io.ReadFull(r, buf)
		if err != nil {
			return 0, numRead, err
		}
		b := buf[0]
		result |= int64(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > 10 {
			return 0, numRead, fmt.Errorf("VarLong is too big")
		}
		if (b & 0x80) == 0 {
			break
		}
	}
	return result, numRead, nil
}

// WriteVarLong writes a variable-length 64-bit integer to the writer.
func WriteVarLong(w io.Writer, value int64) (int, error) {
	uval := uint64(value)
	var buf [10]byte
	n := 0
	for {
		if (uval & ^uint64(0x7F)) == 0 {
			buf[n] = byte(uval)
			n++
			break
		}
		buf[n] = byte(uval&0x7F) | 0x80
		n++
		uval >>= 7
	}
	return w.Write(buf[:n])
}

// ReadString reads a length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length < 0 || length > 32767*4 {
		return "", fmt.Errorf("string length out of range: %d", length)
	}
	buf := make([]byte, length)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteString writes a length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	b := []byte(s)
	_, err := WriteVarInt(w, int32(len(b)))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadUint32 reads a big-endian unsigned 32-bit integer, the wire shape
// of every idalloc ID type.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteUint32 writes a big-endian unsigned 32-bit integer.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

// ReadFloat32 reads a big-endian 32-bit float.
func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// WriteFloat32 writes a big-endian 32-bit float.
func WriteFloat32(w io.Writer, v float32) error {
	return WriteUint32(w, math.Float32bits(v))
}

// ReadBool reads a boolean.
func ReadBool(r io.Reader) (bool, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

// WriteBool writes a boolean.
func WriteBool(w io.Writer, v bool) error {
	var buf [1]byte
	if v {
		buf[0] = 1
	}
	_, err := w.Write(buf[:])
	return err
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadVec3 reads three big-endian 32-bit floats as an mgl32.Vec3.
func ReadVec3(r io.Reader) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := ReadFloat32(r)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// WriteVec3 writes an mgl32.Vec3 as three big-endian 32-bit floats.
func WriteVec3(w io.Writer, v mgl32.Vec3) error {
	for _, f := range v {
		if err := WriteFloat32(w, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadVec2 reads two big-endian 32-bit floats as an mgl32.Vec2.
func ReadVec2(r io.Reader) (mgl32.Vec2, error) {
	var v mgl32.Vec2
	for i := range v {
		f, err := ReadFloat32(r)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// WriteVec2 writes an mgl32.Vec2 as two big-endian 32-bit floats.
func WriteVec2(w io.Writer, v mgl32.Vec2) error {
	for _, f := range v {
		if err := WriteFloat32(w, f); err != nil {
			return err
		}
	}
	return nil
}
