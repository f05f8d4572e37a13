package video

import (
	"errors"
	"io"
	"time"
)

// Sampler walks a Source in a single forward pass, yielding every Nth frame.
// It is not restartable: a second pass needs the source re-opened.
type Sampler struct {
	src       Source
	stride    int64
	pos       int64 // source index of the next frame the decoder will produce
	exhausted bool
	width     int
	height    int
}

// NewSampler verifies that the source is usable at the given stride.
// A source that is known to be shorter than one stride is rejected up front,
// since it cannot yield a single sample sequence worth having.
func NewSampler(src Source, strideFrames int) (*Sampler, error) {
	if strideFrames < 1 {
		return nil, sourceErrorf(-1, "Sampling stride must be >= 1 (got %v)", strideFrames)
	}
	if n := src.FrameCount(); n > 0 && n < int64(strideFrames) {
		return nil, sourceErrorf(-1, "Source has %v frames, which is shorter than one stride of %v", n, strideFrames)
	}
	return &Sampler{
		src:    src,
		stride: int64(strideFrames),
		width:  src.Width(),
		height: src.Height(),
	}, nil
}

// Next returns the next sampled frame, or io.EOF once the source is
// exhausted. Frame indices are source frame indices, strictly increasing.
func (s *Sampler) Next() (*Frame, error) {
	if s.exhausted {
		return nil, io.EOF
	}
	for {
		img, err := s.src.NextFrame()
		if errors.Is(err, io.EOF) {
			s.exhausted = true
			if s.pos == 0 {
				// Not one decodable frame
				return nil, sourceErrorf(-1, "Source contains no decodable frames")
			}
			return nil, io.EOF
		}
		if err != nil {
			s.exhausted = true
			return nil, sourceErrorf(s.pos, "Decode failed: %v", err)
		}
		idx := s.pos
		s.pos++
		if idx%s.stride != 0 {
			continue
		}
		// The pipeline assumes constant resolution. If the recording switches
		// (eg a stream that changes quality), ROI geometry is meaningless
		// from here on, so this is fatal rather than per-frame.
		if img.Width != s.width || img.Height != s.height {
			s.exhausted = true
			return nil, sourceErrorf(idx, "Resolution changed mid-recording from %vx%v to %vx%v",
				s.width, s.height, img.Width, img.Height)
		}
		return &Frame{
			Index:     idx,
			Timestamp: s.timestamp(idx),
			Image:     img,
		}, nil
	}
}

func (s *Sampler) timestamp(idx int64) time.Duration {
	fps := s.src.FrameRate()
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(idx) / fps * float64(time.Second))
}
