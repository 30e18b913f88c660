package landmark

// Face mesh indices used as proximity and connection targets.
var (
	FaceLeftEye  = []int{33, 133, 157, 158, 159, 160, 161, 246}
	FaceRightEye = []int{362, 263, 386, 387, 388, 389, 390, 466}
	FaceMouth    = []int{61, 185, 40, 39, 37, 0, 267, 269, 270, 409}
	FaceNose     = []int{4, 6, 19, 20, 94, 125, 141, 235, 236, 3}
	FaceOutline  = []int{10, 338, 297, 332, 284, 251, 389, 152, 148, 176, 149, 150, 136, 172}
)

// FaceNetwork is the sparse set of mesh points linked to each other:
// eye corners, mouth corners, nose tip, cheeks, forehead/chin and brows.
var FaceNetwork = []int{33, 133, 362, 263, 61, 291, 4, 168, 397, 10, 152, 70, 336}

// FaceKeyPoints returns the curated face subset in a stable order.
// 389 appears in both the right eye and the outline; the duplicate is dropped.
func FaceKeyPoints() []int {
	groups := [][]int{FaceLeftEye, FaceRightEye, FaceMouth, FaceNose, FaceOutline}
	seen := make(map[int]bool)
	var out []int
	for _, g := range groups {
		for _, i := range g {
			if seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
