package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		want       float64
	}{
		{"zero uses default", 0, 10},
		{"negative uses default", -3, 10},
		{"custom", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.want {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.want)
			}
		})
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)

	steps := []struct {
		track   int
		percent float64
		want    bool
	}{
		{1, 0, true},
		{1, 4, false},
		{1, 10, true},
		{1, 19.9, false},
		{1, 150, true},
		{1, 100, false},
		{2, 0, true},
		{2, -1, false},
		{3, -1, true},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.track, step.percent); got != step.want {
			t.Errorf("step %d: ShouldLog(%d, %v) = %v, want %v", i, step.track, step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerNilAndReset(t *testing.T) {
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, 50) {
		t.Error("nil sampler should always log")
	}
	nilSampler.Reset()

	s := NewProgressSampler(10)
	s.ShouldLog(1, 50)
	s.Reset()
	if !s.ShouldLog(1, 50) {
		t.Error("expected log after reset")
	}
}
