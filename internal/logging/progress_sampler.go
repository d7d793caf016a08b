package logging

// ProgressSampler thins out per-sector progress logging. It reports true when
// the percentage crosses a bucket boundary or the track changes.
type ProgressSampler struct {
	bucketSize float64
	lastTrack  int
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for track at percent should be
// logged. A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(track int, percent float64) bool {
	if s == nil {
		return true
	}
	emit := false
	if track != s.lastTrack {
		s.lastTrack = track
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	if bucket := int(percent / s.bucketSize); bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastTrack = 0
	s.lastBucket = -1
}
