package voxel

// Kind discriminates the three Voxel states.
type Kind int

const (
	// KindEmpty is the pure-air variant: no neighbor sampled inside.
	KindEmpty Kind = iota
	// KindVolume means every sampled corner agreed: fully inside or
	// fully outside.
	KindVolume
	// KindSurface means the voxel straddles the isosurface and carries
	// an extracted vertex/normal.
	KindSurface
)

// Voxel is one of Empty, Volume(inside), or Surface{vertex, corner,
// normal}.
type Voxel struct {
	Kind Kind

	// Valid when Kind == KindVolume.
	Inside bool

	// Valid when Kind == KindSurface.
	InnerVertex        Vertex
	CornerInsideSurface bool
	HasNormal           bool
	Normal              Normal
}

// Empty returns the Empty voxel.
func Empty() Voxel {
	return Voxel{Kind: KindEmpty}
}

// Volume returns a Volume(inside) voxel.
func Volume(inside bool) Voxel {
	return Voxel{Kind: KindVolume, Inside: inside}
}

// Surface returns a Surface voxel.
func Surface(vertex Vertex, cornerInside bool, normal Normal, hasNormal bool) Voxel {
	return Voxel{
		Kind:                KindSurface,
		InnerVertex:         vertex,
		CornerInsideSurface: cornerInside,
		HasNormal:           hasNormal,
		Normal:              normal,
	}
}

// CornerInside reports whether this voxel's minimum corner is inside the
// volume, used by the mesher to decide whether an edge crosses the
// isosurface. Empty voxels report false (outside).
func (v Voxel) CornerInside() bool {
	switch v.Kind {
	case KindVolume:
		return v.Inside
	case KindSurface:
		return v.CornerInsideSurface
	default:
		return false
	}
}
