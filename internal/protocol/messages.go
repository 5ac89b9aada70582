package protocol

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/mesh"
)

// Client→Server message types.
const (
	MsgInit int32 = iota
	MsgPing
	MsgAddPlayer
	MsgStartJump
	MsgStopJump
	MsgWalk
	MsgRotatePlayer
	MsgRequestBlock
	MsgRemoveVoxel
)

// Server→Client message types.
const (
	MsgLeaseId int32 = iota
	MsgPingReply
	MsgPlayerAdded
	MsgUpdatePlayer
	MsgUpdateMob
	MsgUpdateSun
	MsgTerrainBlockSend
)

// Init is a client announcing the URL it's reachable at.
type Init struct{ ClientURL string }

func (m Init) Encode() *Packet {
	return MarshalPacket(MsgInit, func(w *bytes.Buffer) { WriteString(w, m.ClientURL) })
}

func DecodeInit(data []byte) (Init, error) {
	r := bytes.NewReader(data)
	url, err := ReadString(r)
	return Init{ClientURL: url}, err
}

// Ping is a client liveness check, tagged with its lease.
type Ping struct{ ClientId idalloc.ClientId }

func (m Ping) Encode() *Packet {
	return MarshalPacket(MsgPing, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.ClientId)) })
}

func DecodePing(data []byte) (Ping, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return Ping{ClientId: idalloc.ClientId(v)}, err
}

// AddPlayer requests a new player entity for the client.
type AddPlayer struct{ ClientId idalloc.ClientId }

func (m AddPlayer) Encode() *Packet {
	return MarshalPacket(MsgAddPlayer, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.ClientId)) })
}

func DecodeAddPlayer(data []byte) (AddPlayer, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return AddPlayer{ClientId: idalloc.ClientId(v)}, err
}

// StartJump begins a jump for the given player.
type StartJump struct{ PlayerId idalloc.EntityId }

func (m StartJump) Encode() *Packet {
	return MarshalPacket(MsgStartJump, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.PlayerId)) })
}

func DecodeStartJump(data []byte) (StartJump, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return StartJump{PlayerId: idalloc.EntityId(v)}, err
}

// StopJump ends a jump for the given player.
type StopJump struct{ PlayerId idalloc.EntityId }

func (m StopJump) Encode() *Packet {
	return MarshalPacket(MsgStopJump, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.PlayerId)) })
}

func DecodeStopJump(data []byte) (StopJump, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return StopJump{PlayerId: idalloc.EntityId(v)}, err
}

// Walk sets a player's horizontal walk direction.
type Walk struct {
	PlayerId  idalloc.EntityId
	Direction mgl32.Vec3
}

func (m Walk) Encode() *Packet {
	return MarshalPacket(MsgWalk, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.PlayerId))
		WriteVec3(w, m.Direction)
	})
}

func DecodeWalk(data []byte) (Walk, error) {
	r := bytes.NewReader(data)
	id, err := ReadUint32(r)
	if err != nil {
		return Walk{}, err
	}
	dir, err := ReadVec3(r)
	return Walk{PlayerId: idalloc.EntityId(id), Direction: dir}, err
}

// RotatePlayer sets a player's look direction (yaw, pitch).
type RotatePlayer struct {
	PlayerId idalloc.EntityId
	Rotation mgl32.Vec2
}

func (m RotatePlayer) Encode() *Packet {
	return MarshalPacket(MsgRotatePlayer, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.PlayerId))
		WriteVec2(w, m.Rotation)
	})
}

func DecodeRotatePlayer(data []byte) (RotatePlayer, error) {
	r := bytes.NewReader(data)
	id, err := ReadUint32(r)
	if err != nil {
		return RotatePlayer{}, err
	}
	rot, err := ReadVec2(r)
	return RotatePlayer{PlayerId: idalloc.EntityId(id), Rotation: rot}, err
}

// RequestBlock asks the server to generate and send one block's mesh
// for the requesting client's view, independent of LOD arbitration.
type RequestBlock struct {
	ClientId idalloc.ClientId
	Position lod.BlockPosition
	LODIndex lod.Index
}

func (m RequestBlock) Encode() *Packet {
	return MarshalPacket(MsgRequestBlock, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.ClientId))
		WriteInt32(w, m.Position.X)
		WriteInt32(w, m.Position.Y)
		WriteInt32(w, m.Position.Z)
		WriteByte(w, byte(m.LODIndex))
	})
}

func DecodeRequestBlock(data []byte) (RequestBlock, error) {
	r := bytes.NewReader(data)
	client, err := ReadUint32(r)
	if err != nil {
		return RequestBlock{}, err
	}
	x, err := ReadInt32(r)
	if err != nil {
		return RequestBlock{}, err
	}
	y, err := ReadInt32(r)
	if err != nil {
		return RequestBlock{}, err
	}
	z, err := ReadInt32(r)
	if err != nil {
		return RequestBlock{}, err
	}
	idx, err := ReadByte(r)
	if err != nil {
		return RequestBlock{}, err
	}
	return RequestBlock{
		ClientId: idalloc.ClientId(client),
		Position: lod.NewBlockPosition(x, y, z),
		LODIndex: lod.Index(idx),
	}, nil
}

// RemoveVoxel asks the server to dig out whatever voxel the given
// player is looking at.
type RemoveVoxel struct{ PlayerId idalloc.EntityId }

func (m RemoveVoxel) Encode() *Packet {
	return MarshalPacket(MsgRemoveVoxel, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.PlayerId)) })
}

func DecodeRemoveVoxel(data []byte) (RemoveVoxel, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return RemoveVoxel{PlayerId: idalloc.EntityId(v)}, err
}

// LeaseId answers Init with the client's newly allocated ClientId.
type LeaseId struct{ ClientId idalloc.ClientId }

func (m LeaseId) Encode() *Packet {
	return MarshalPacket(MsgLeaseId, func(w *bytes.Buffer) { WriteUint32(w, uint32(m.ClientId)) })
}

func DecodeLeaseId(data []byte) (LeaseId, error) {
	r := bytes.NewReader(data)
	v, err := ReadUint32(r)
	return LeaseId{ClientId: idalloc.ClientId(v)}, err
}

// PingReply answers Ping with no payload.
type PingReply struct{}

func (m PingReply) Encode() *Packet {
	return &Packet{Type: MsgPingReply}
}

// PlayerAdded answers AddPlayer with the new player entity and its
// spawn position.
type PlayerAdded struct {
	EntityId idalloc.EntityId
	Position mgl32.Vec3
}

func (m PlayerAdded) Encode() *Packet {
	return MarshalPacket(MsgPlayerAdded, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.EntityId))
		WriteVec3(w, m.Position)
	})
}

func DecodePlayerAdded(data []byte) (PlayerAdded, error) {
	r := bytes.NewReader(data)
	id, err := ReadUint32(r)
	if err != nil {
		return PlayerAdded{}, err
	}
	pos, err := ReadVec3(r)
	return PlayerAdded{EntityId: idalloc.EntityId(id), Position: pos}, err
}

// UpdatePlayer pushes a player entity's current collision bounds.
type UpdatePlayer struct {
	EntityId idalloc.EntityId
	Min, Max mgl32.Vec3
}

func (m UpdatePlayer) Encode() *Packet {
	return MarshalPacket(MsgUpdatePlayer, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.EntityId))
		WriteVec3(w, m.Min)
		WriteVec3(w, m.Max)
	})
}

func DecodeUpdatePlayer(data []byte) (UpdatePlayer, error) {
	r := bytes.NewReader(data)
	id, err := ReadUint32(r)
	if err != nil {
		return UpdatePlayer{}, err
	}
	min, err := ReadVec3(r)
	if err != nil {
		return UpdatePlayer{}, err
	}
	max, err := ReadVec3(r)
	return UpdatePlayer{EntityId: idalloc.EntityId(id), Min: min, Max: max}, err
}

// UpdateMob pushes a mob entity's current collision bounds. Mob AI
// itself is an external collaborator; this message only carries the
// bounds that collaborator produces.
type UpdateMob struct {
	EntityId idalloc.EntityId
	Min, Max mgl32.Vec3
}

func (m UpdateMob) Encode() *Packet {
	return MarshalPacket(MsgUpdateMob, func(w *bytes.Buffer) {
		WriteUint32(w, uint32(m.EntityId))
		WriteVec3(w, m.Min)
		WriteVec3(w, m.Max)
	})
}

func DecodeUpdateMob(data []byte) (UpdateMob, error) {
	r := bytes.NewReader(data)
	id, err := ReadUint32(r)
	if err != nil {
		return UpdateMob{}, err
	}
	min, err := ReadVec3(r)
	if err != nil {
		return UpdateMob{}, err
	}
	max, err := ReadVec3(r)
	return UpdateMob{EntityId: idalloc.EntityId(id), Min: min, Max: max}, err
}

// UpdateSun pushes the sun's position in its day/night cycle as a
// fraction in [0, 1). The cycle itself is an external collaborator;
// this message is only the hook that collaborator pushes through.
type UpdateSun struct{ Fraction float32 }

func (m UpdateSun) Encode() *Packet {
	return MarshalPacket(MsgUpdateSun, func(w *bytes.Buffer) { WriteFloat32(w, m.Fraction) })
}

func DecodeUpdateSun(data []byte) (UpdateSun, error) {
	r := bytes.NewReader(data)
	f, err := ReadFloat32(r)
	return UpdateSun{Fraction: f}, err
}

// TerrainBlockSend delivers one generated block's mesh for a position
// and LOD.
type TerrainBlockSend struct {
	Position lod.BlockPosition
	LODIndex lod.Index
	Block    mesh.Block
}

func (m TerrainBlockSend) Encode() *Packet {
	return MarshalPacket(MsgTerrainBlockSend, func(w *bytes.Buffer) {
		WriteInt32(w, m.Position.X)
		WriteInt32(w, m.Position.Y)
		WriteInt32(w, m.Position.Z)
		WriteByte(w, byte(m.LODIndex))
		encodeTerrainBlock(w, m.Block)
	})
}

func DecodeTerrainBlockSend(data []byte) (TerrainBlockSend, error) {
	r := bytes.NewReader(data)
	x, err := ReadInt32(r)
	if err != nil {
		return TerrainBlockSend{}, err
	}
	y, err := ReadInt32(r)
	if err != nil {
		return TerrainBlockSend{}, err
	}
	z, err := ReadInt32(r)
	if err != nil {
		return TerrainBlockSend{}, err
	}
	idx, err := ReadByte(r)
	if err != nil {
		return TerrainBlockSend{}, err
	}
	block, err := decodeTerrainBlock(r)
	if err != nil {
		return TerrainBlockSend{}, err
	}
	return TerrainBlockSend{
		Position: lod.NewBlockPosition(x, y, z),
		LODIndex: lod.Index(idx),
		Block:    block,
	}, nil
}

// encodeTerrainBlock writes a mesh.Block as parallel per-triangle
// arrays: vertex_coordinates, normals, ids, and bounds all share one
// length (the triangle count), matching one TerrainBlock entry per
// triangle rather than per individual float.
func encodeTerrainBlock(w *bytes.Buffer, b mesh.Block) {
	WriteVarInt(w, int32(len(b.Triangles)))
	for _, tri := range b.Triangles {
		for _, v := range tri.Vertices {
			WriteVec3(w, v)
		}
		for _, n := range tri.Normals {
			WriteVec3(w, n)
		}
		WriteUint32(w, uint32(tri.ID))
		WriteVec3(w, tri.Bounds.Min)
		WriteVec3(w, tri.Bounds.Max)
	}
}

func decodeTerrainBlock(r *bytes.Reader) (mesh.Block, error) {
	count, _, err := ReadVarInt(r)
	if err != nil {
		return mesh.Block{}, err
	}
	if count < 0 {
		return mesh.Block{}, fmt.Errorf("negative triangle count: %d", count)
	}

	triangles := make([]mesh.Triangle, 0, count)
	for i := int32(0); i < count; i++ {
		var tri mesh.Triangle
		for j := range tri.Vertices {
			v, err := ReadVec3(r)
			if err != nil {
				return mesh.Block{}, err
			}
			tri.Vertices[j] = v
		}
		for j := range tri.Normals {
			n, err := ReadVec3(r)
			if err != nil {
				return mesh.Block{}, err
			}
			tri.Normals[j] = n
		}
		id, err := ReadUint32(r)
		if err != nil {
			return mesh.Block{}, err
		}
		tri.ID = idalloc.EntityId(id)
		min, err := ReadVec3(r)
		if err != nil {
			return mesh.Block{}, err
		}
		max, err := ReadVec3(r)
		if err != nil {
			return mesh.Block{}, err
		}
		tri.Bounds = mesh.AABB{Min: min, Max: max}
		triangles = append(triangles, tri)
	}
	return mesh.Block{Triangles: triangles}, nil
}
