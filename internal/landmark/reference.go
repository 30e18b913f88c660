package landmark

// Reference point names derived from the pose skeleton.
const (
	RefChest      = "chest"
	RefHipCenter  = "hips"
	RefBodyCenter = "bodyCenter"
	RefLeftHip    = "leftHip"
	RefRightHip   = "rightHip"
	RefLeftAnkle  = "leftAnkle"
	RefRightAnkle = "rightAnkle"
)

// Ref is a point derived from one or more pose landmarks.
// OK is false when any constituent landmark is missing; such a ref must be
// skipped rather than treated as the origin.
type Ref struct {
	Name  string
	Point Point
	OK    bool
}

// References holds every reference point computed from one pose.
type References struct {
	Chest      Ref
	HipCenter  Ref
	BodyCenter Ref
	LeftHip    Ref
	RightHip   Ref
	LeftAnkle  Ref
	RightAnkle Ref
}

// ComputeReferences derives the reference points from a pose set.
// A nil pose yields references that are all undefined.
func ComputeReferences(pose *Set) References {
	return References{
		Chest:      mean(RefChest, pose, LeftShoulder, RightShoulder),
		HipCenter:  mean(RefHipCenter, pose, LeftHip, RightHip),
		BodyCenter: mean(RefBodyCenter, pose, Nose, LeftShoulder, RightShoulder, LeftHip, RightHip),
		LeftHip:    mean(RefLeftHip, pose, LeftHip),
		RightHip:   mean(RefRightHip, pose, RightHip),
		LeftAnkle:  mean(RefLeftAnkle, pose, LeftAnkle),
		RightAnkle: mean(RefRightAnkle, pose, RightAnkle),
	}
}

// ProximityTargets returns the refs the proximity sample is measured against.
func (r References) ProximityTargets() []Ref {
	return []Ref{r.Chest, r.HipCenter, r.BodyCenter, r.LeftAnkle, r.RightAnkle}
}

// ConnectionTargets returns the refs that hands draw connections to.
func (r References) ConnectionTargets() []Ref {
	return []Ref{r.Chest, r.HipCenter, r.LeftHip, r.RightHip, r.LeftAnkle, r.RightAnkle}
}

// Defined filters refs down to the ones whose landmarks were all present.
func Defined(refs []Ref) []Ref {
	out := refs[:0:0]
	for _, r := range refs {
		if r.OK {
			out = append(out, r)
		}
	}
	return out
}

func mean(name string, pose *Set, indices ...int) Ref {
	ref := Ref{Name: name}
	if pose == nil || len(indices) == 0 {
		return ref
	}

	var sx, sy, sz float64
	for _, i := range indices {
		p, ok := pose.At(i)
		if !ok {
			return ref
		}
		sx += p.X
		sy += p.Y
		sz += p.Z
	}

	n := float64(len(indices))
	ref.Point = Point{X: sx / n, Y: sy / n, Z: sz / n}
	ref.OK = true
	return ref
}
