package race

import (
	"math/rand"
	"testing"
)

func TestCourseEndpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	course := GenerateCourse(rng, 8)

	start := course.PointAt(0)
	if start != (Vec3{}) {
		t.Errorf("expected course to start at origin, got %+v", start)
	}

	end := course.PointAt(1)
	if end.X <= start.X {
		t.Errorf("expected course to advance along X, end at %+v", end)
	}

	// Out-of-range input clamps to the endpoints.
	if course.PointAt(-0.5) != start {
		t.Error("negative t should clamp to the start")
	}
	if course.PointAt(2) != end {
		t.Error("t beyond 1 should clamp to the end")
	}
}

func TestCourseAdvancesAlongX(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	course := GenerateCourse(rng, 10)

	samples := course.Samples(50)
	if len(samples) != 50 {
		t.Fatalf("expected 50 samples, got %d", len(samples))
	}
	// Control points only ever move forward on X, so samples should
	// trend forward too; allow small spline overshoot between knots.
	for i := 1; i < len(samples); i++ {
		if samples[i].X < samples[i-1].X-1.0 {
			t.Errorf("sample %d doubled back: %f -> %f", i, samples[i-1].X, samples[i].X)
		}
	}
}

func TestCourseMinimumSegments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	course := GenerateCourse(rng, 0)
	if len(course.Samples(10)) != 10 {
		t.Error("degenerate segment count should still produce a usable course")
	}
}
