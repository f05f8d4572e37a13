// Package video reads frames out of a recording and hands them to the
// pipeline at a fixed sampling stride.
package video

import (
	"fmt"
	"time"

	"github.com/bmharper/cimg/v2"
)

// SourceError is a fatal error on the video source: the recording cannot be
// opened or decoded, or its properties changed mid-stream.
type SourceError struct {
	FrameIndex int64 // -1 when not tied to a particular frame
	Message    string
}

func (e *SourceError) Error() string {
	if e.FrameIndex >= 0 {
		return fmt.Sprintf("frame %v: %v", e.FrameIndex, e.Message)
	}
	return e.Message
}

func sourceErrorf(frame int64, format string, args ...any) *SourceError {
	return &SourceError{FrameIndex: frame, Message: fmt.Sprintf(format, args...)}
}

// Frame is one decoded image, owned transiently by the pipeline stage that
// is processing it.
type Frame struct {
	Index     int64         // monotonic index in the source (not the sample sequence)
	Timestamp time.Duration // offset from the start of the recording (zero if the rate is unknown)
	Image     *cimg.Image
}

// Source is a decodable recording. Decode is inherently sequential, so a
// Source is owned by a single reader and is not safe for concurrent use.
type Source interface {
	Close()
	Width() int
	Height() int
	// FrameRate returns frames per second, or 0 if the container doesn't say.
	FrameRate() float64
	// FrameCount returns the total number of frames, or 0 if unknown.
	FrameCount() int64
	// NextFrame decodes and returns the next frame, or io.EOF at the end.
	NextFrame() (*cimg.Image, error)
}
