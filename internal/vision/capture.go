package vision

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// OpenSource opens a camera when source is a device index and a video file
// otherwise.
func OpenSource(source string) (*gocv.VideoCapture, error) {
	if idx, err := strconv.Atoi(source); err == nil {
		vc, err := gocv.VideoCaptureDevice(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to open camera %d: %w", idx, err)
		}
		return vc, nil
	}
	vc, err := gocv.VideoCaptureFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %q: %w", source, err)
	}
	return vc, nil
}

// OpenWriter creates an MJPG video writer for annotated working frames.
func OpenWriter(path string, fps float64, width, height int) (*gocv.VideoWriter, error) {
	w, err := gocv.VideoWriterFile(path, "MJPG", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open video writer %q: %w", path, err)
	}
	return w, nil
}
