package video

import (
	"fmt"
	"io"

	"github.com/bmharper/cimg/v2"
	"gocv.io/x/gocv"
)

// FileSource decodes a video file (or stream URL) through OpenCV.
type FileSource struct {
	capture    *gocv.VideoCapture
	bgr        gocv.Mat
	rgb        gocv.Mat
	width      int
	height     int
	frameRate  float64
	frameCount int64
}

// OpenFile opens a recording for a single decode pass.
func OpenFile(filename string) (*FileSource, error) {
	capture, err := gocv.OpenVideoCapture(filename)
	if err != nil {
		return nil, sourceErrorf(-1, "Failed to open video '%v': %v", filename, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, sourceErrorf(-1, "Failed to open video '%v'", filename)
	}
	return &FileSource{
		capture:    capture,
		bgr:        gocv.NewMat(),
		rgb:        gocv.NewMat(),
		width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		frameRate:  capture.Get(gocv.VideoCaptureFPS),
		frameCount: int64(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

func (s *FileSource) Close() {
	s.bgr.Close()
	s.rgb.Close()
	s.capture.Close()
}

func (s *FileSource) Width() int {
	return s.width
}

func (s *FileSource) Height() int {
	return s.height
}

func (s *FileSource) FrameRate() float64 {
	return s.frameRate
}

func (s *FileSource) FrameCount() int64 {
	return s.frameCount
}

// NextFrame decodes the next frame into a fresh RGB image.
// OpenCV hands us BGR, and everything downstream expects RGB.
func (s *FileSource) NextFrame() (*cimg.Image, error) {
	if !s.capture.Read(&s.bgr) {
		return nil, io.EOF
	}
	if s.bgr.Empty() {
		return nil, io.EOF
	}
	if err := gocv.CvtColor(s.bgr, &s.rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, fmt.Errorf("BGR to RGB conversion failed: %w", err)
	}
	raw := s.rgb.ToBytes()
	img := cimg.NewImage(s.rgb.Cols(), s.rgb.Rows(), cimg.PixelFormatRGB)
	copy(img.Pixels, raw)
	return img, nil
}
