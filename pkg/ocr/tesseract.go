package ocr

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/otiai10/gosseract/v2"
	"github.com/stagewatch/stagewatch/pkg/gen"
	"github.com/stagewatch/stagewatch/pkg/perfstats"
)

// Tesseract reads text with the Tesseract engine via gosseract.
// A gosseract client is single-threaded, so we keep a pool of them and
// ReadText borrows one per call. poolSize should match the pipeline's
// worker count.
type Tesseract struct {
	log     logs.Log
	clients chan *gosseract.Client

	statsLock sync.Mutex
	readTime  perfstats.TimeAccumulator
}

func NewTesseract(logger logs.Log, language string, poolSize int) (*Tesseract, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	t := &Tesseract{
		log:     logs.NewPrefixLogger(logger, "Tesseract"),
		clients: make(chan *gosseract.Client, poolSize),
	}
	for i := 0; i < poolSize; i++ {
		client := gosseract.NewClient()
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			t.Close()
			return nil, fmt.Errorf("Failed to set OCR language '%v': %w", language, err)
		}
		// Telemetry overlays are single lines of text
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
			client.Close()
			t.Close()
			return nil, fmt.Errorf("Failed to set page segmentation mode: %w", err)
		}
		t.clients <- client
	}
	return t, nil
}

// Close releases the engine pool. Only call this once all ReadText calls
// have returned.
func (t *Tesseract) Close() {
	for _, client := range gen.DrainChannelIntoSlice(t.clients) {
		client.Close()
	}
	t.statsLock.Lock()
	defer t.statsLock.Unlock()
	if t.readTime.Samples != 0 {
		t.log.Infof("%v reads, average %v", t.readTime.Samples, t.readTime.Average())
	}
}

func (t *Tesseract) ReadText(img *cimg.Image) Result {
	client := <-t.clients
	start := time.Now()
	defer func() {
		t.statsLock.Lock()
		t.readTime.AddSample(time.Since(start))
		t.statsLock.Unlock()
		t.clients <- client
	}()

	encoded, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling444, 95, 0))
	if err != nil {
		t.log.Errorf("Failed to encode region for OCR: %v", err)
		return Result{}
	}
	if err := client.SetImageFromBytes(encoded); err != nil {
		t.log.Errorf("Failed to set OCR image: %v", err)
		return Result{}
	}
	text, err := client.Text()
	if err != nil {
		// "nothing recognized" arrives here too, so this is not an error
		return Result{}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}
	}

	// Tesseract reports word confidences as 0..100
	confidence := float32(0)
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		total := float64(0)
		n := 0
		for _, box := range boxes {
			if box.Confidence > 0 {
				total += box.Confidence
				n++
			}
		}
		if n > 0 {
			confidence = gen.Clamp(float32(total/float64(n)/100), 0, 1)
		}
	}
	return Result{Text: text, Confidence: confidence}
}
