package web

import "testing"

func TestViewportPhaseCameras(t *testing.T) {
	var v Viewport
	if got := v.CameraFor("start"); got != CameraOverhead {
		t.Errorf("start phase: expected %s, got %s", CameraOverhead, got)
	}
	if got := v.CameraFor("end"); got != CameraFinishLine {
		t.Errorf("end phase: expected %s, got %s", CameraFinishLine, got)
	}
	if got := v.CameraFor("finished"); got != CameraFinishLine {
		t.Errorf("finished phase: expected %s, got %s", CameraFinishLine, got)
	}
}

func TestViewportCyclesMidraceCameras(t *testing.T) {
	var v Viewport
	seen := make(map[string]bool)
	for i := 0; i < cameraHold*len(midraceCameras); i++ {
		seen[v.CameraFor("middle")] = true
	}
	if len(seen) != len(midraceCameras) {
		t.Errorf("expected all %d mid-race cameras over a full cycle, saw %d", len(midraceCameras), len(seen))
	}
}
