package web

import "sync"

// Camera modes the overlay renderer understands.
const (
	CameraOverhead   = "overhead"
	CameraChase      = "chase"
	CameraSide       = "side"
	CameraFinishLine = "finish_line"
)

var midraceCameras = []string{CameraChase, CameraSide, CameraOverhead}

// Frames between mid-race camera cuts.
const cameraHold = 6

// Viewport picks the overlay camera for each frame. The start gets a
// wide overhead shot, the finish gets the finish-line camera, and the
// middle of the race cycles through the chase angles. Camera work is a
// presentation concern; the race core never sees it.
type Viewport struct {
	mu     sync.Mutex
	frames int
	idx    int
}

// CameraFor returns the camera mode for a frame in the given phase.
func (v *Viewport) CameraFor(phase string) string {
	switch phase {
	case "start":
		return CameraOverhead
	case "end", "finished":
		return CameraFinishLine
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames++
	if v.frames%cameraHold == 0 {
		v.idx = (v.idx + 1) % len(midraceCameras)
	}
	return midraceCameras[v.idx]
}
