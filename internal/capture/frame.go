package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ToRGBA converts a BGR frame into tightly packed RGBA pixels, reusing dst
// when it is large enough. It returns the pixels and the frame size.
func ToRGBA(frame *gocv.Mat, dst []byte) ([]byte, int, int, error) {
	if frame == nil || frame.Empty() {
		return dst, 0, 0, ErrEmptyFrame
	}

	rgba := gocv.NewMat()
	defer rgba.Close()

	switch frame.Channels() {
	case 1:
		gocv.CvtColor(*frame, &rgba, gocv.ColorGrayToRGBA)
	case 3:
		gocv.CvtColor(*frame, &rgba, gocv.ColorBGRToRGBA)
	case 4:
		gocv.CvtColor(*frame, &rgba, gocv.ColorBGRAToRGBA)
	default:
		return dst, 0, 0, fmt.Errorf("unsupported frame with %d channels", frame.Channels())
	}

	w, h := rgba.Cols(), rgba.Rows()
	n := w * h * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	copy(dst, rgba.ToBytes())
	return dst, w, h, nil
}
