// Package pipeline drives a full extraction run: sample frames from a video
// source, crop the active regions, OCR them on a worker pool, and assemble
// the results into validated telemetry series and flight events.
package pipeline

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stagewatch/stagewatch/pkg/flightevents"
	"github.com/stagewatch/stagewatch/pkg/ocr"
	"github.com/stagewatch/stagewatch/pkg/roicfg"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
	"github.com/stagewatch/stagewatch/pkg/video"
)

type Options struct {
	// Decode every frame, OCR every StrideFrames'th.
	StrideFrames int
	// Number of OCR workers. The OCR reader's pool should be at least
	// this large.
	Workers int
	// Frames handed to the workers between cancellation checks.
	BatchSize int
	// OCR confidence floor; readings below it are kept but flagged.
	MinConfidence float32
	// Luminance threshold for a lit engine indicator.
	EngineLitThreshold uint8

	// Largest believable change per sampled step, in canonical units per
	// source frame. Scaled by StrideFrames internally.
	SpeedStepDelta    float64 // km/h per frame
	AltitudeStepDelta float64 // km per frame

	Rules             []flightevents.Rule // nil = flightevents.DefaultRules()
	MergeWindowFrames int64
	Derive            telemetry.DeriveOptions

	// Called from the sampling loop after each sampled frame.
	Progress func(Progress)
}

type Progress struct {
	FrameIndex  int64
	FramesDone  int64
	TotalFrames int64 // 0 when the source doesn't know
}

func DefaultOptions() Options {
	return Options{
		StrideFrames:       30,
		Workers:            runtime.NumCPU(),
		BatchSize:          8,
		MinConfidence:      0.3,
		EngineLitThreshold: 200,
		SpeedStepDelta:     50,
		AltitudeStepDelta:  1,
		Derive:             telemetry.DefaultDeriveOptions(),
	}
}

type Diagnostics struct {
	FramesSampled   int64                             `json:"framesSampled"`
	Observations    int64                             `json:"observations"`
	InvalidByReason map[telemetry.InvalidReason]int64 `json:"invalidByReason"`
	Conflicts       int64                             `json:"conflicts"`
	// Smoothed time per OCR call.
	AvgOCRNanoseconds int64 `json:"avgOcrNanoseconds"`
}

type Result struct {
	Series      *telemetry.SeriesSet
	Events      []flightevents.Event
	Diagnostics Diagnostics
	// False when the context was cancelled before the source was exhausted.
	// The series and events cover what was processed.
	Completed bool
}

type frameJob struct {
	frame *video.Frame
	rois  []*roicfg.RoiDef
}

type runner struct {
	log      logs.Log
	reader   ocr.Reader
	asm      *telemetry.Assembler
	specs    map[specKey]*telemetry.FieldSpec
	options  Options
	avgOcrNS atomic.Int64
}

type specKey struct {
	vehicle string
	field   string
}

// Run executes one extraction over the whole source. Configuration errors
// and source failures are returned as errors; OCR noise never is, bad
// readings become invalid samples. Cancelling ctx stops the run at the next
// batch boundary and returns the partial result with Completed == false.
func Run(ctx context.Context, logger logs.Log, cfg *roicfg.Config, src video.Source, reader ocr.Reader, options Options) (*Result, error) {
	fillDefaults(&options)
	log := logs.NewPrefixLogger(logger, "Pipeline")

	schedule, err := roicfg.NewSchedule(cfg, src.FrameRate())
	if err != nil {
		return nil, err
	}
	sampler, err := video.NewSampler(src, options.StrideFrames)
	if err != nil {
		return nil, err
	}

	r := &runner{
		log:     log,
		reader:  reader,
		asm:     telemetry.NewAssembler(),
		specs:   map[specKey]*telemetry.FieldSpec{},
		options: options,
	}
	for _, roi := range cfg.Rois {
		r.registerSpec(roi)
	}

	log.Infof("Starting extraction: %vx%v @ %.2f fps, stride %v, %v workers",
		src.Width(), src.Height(), src.FrameRate(), options.StrideFrames, options.Workers)

	jobs := make(chan frameJob, options.Workers*2)
	wg := sync.WaitGroup{}
	for i := 0; i < options.Workers; i++ {
		wg.Add(1)
		go r.worker(jobs, &wg)
	}

	framesDone := int64(0)
	completed := true
	var fatal error
readLoop:
	for {
		if ctx.Err() != nil {
			log.Infof("Cancelled after %v frames", framesDone)
			completed = false
			break
		}
		for b := 0; b < options.BatchSize; b++ {
			frame, err := sampler.Next()
			if err == io.EOF {
				break readLoop
			} else if err != nil {
				fatal = err
				completed = false
				break readLoop
			}
			framesDone++
			if rois := schedule.ActiveAt(frame.Index); len(rois) > 0 {
				jobs <- frameJob{frame: frame, rois: rois}
			}
			if options.Progress != nil {
				options.Progress(Progress{
					FrameIndex:  frame.Index,
					FramesDone:  framesDone,
					TotalFrames: src.FrameCount(),
				})
			}
		}
	}
	close(jobs)
	wg.Wait()
	if fatal != nil {
		return nil, fatal
	}

	set := r.asm.Finalize()
	r.deriveMotion(set, src.FrameRate())
	detector := flightevents.NewDetector(logger, options.Rules, src.FrameRate(), options.MergeWindowFrames)
	events := detector.Detect(set)

	result := &Result{
		Series:      set,
		Events:      events,
		Diagnostics: r.diagnostics(set, framesDone),
		Completed:   completed,
	}
	log.Infof("Done: %v frames sampled, %v observations, %v events, avg OCR %v",
		result.Diagnostics.FramesSampled, result.Diagnostics.Observations,
		len(events), time.Duration(result.Diagnostics.AvgOCRNanoseconds))
	return result, nil
}

func fillDefaults(options *Options) {
	def := DefaultOptions()
	if options.StrideFrames <= 0 {
		options.StrideFrames = def.StrideFrames
	}
	if options.Workers <= 0 {
		options.Workers = def.Workers
	}
	if options.BatchSize <= 0 {
		options.BatchSize = def.BatchSize
	}
	if options.EngineLitThreshold == 0 {
		options.EngineLitThreshold = def.EngineLitThreshold
	}
	if options.SpeedStepDelta == 0 {
		options.SpeedStepDelta = def.SpeedStepDelta
	}
	if options.AltitudeStepDelta == 0 {
		options.AltitudeStepDelta = def.AltitudeStepDelta
	}
	if options.Derive.FrameDistance == 0 && options.Derive.MaxAcceleration == 0 {
		options.Derive = def.Derive
	}
}

// registerSpec builds the parse spec for one ROI and hands its step-delta
// to the assembler.
func (r *runner) registerSpec(roi *roicfg.RoiDef) {
	spec := &telemetry.FieldSpec{MinConfidence: r.options.MinConfidence}
	switch roi.Measure() {
	case roicfg.MeasurePattern:
		spec.Pattern = roi.Pattern()
	case roicfg.MeasureUnit:
		spec.Unit = roi.MeasurementUnit
		stride := float64(r.options.StrideFrames)
		switch telemetry.CanonicalUnit(roi.MeasurementUnit) {
		case telemetry.UnitKmh:
			spec.MinValue, spec.MaxValue = 0, 40000
			spec.MaxStepDelta = r.options.SpeedStepDelta * stride
		case telemetry.UnitKm:
			spec.MinValue, spec.MaxValue = 0, 2000
			spec.MaxStepDelta = r.options.AltitudeStepDelta * stride
		}
	case roicfg.MeasureNone:
		// Point groups are counted, not parsed.
		return
	}
	r.specs[specKey{roi.Vehicle, roi.ID}] = spec
	r.asm.SetSpec(roi.Vehicle, roi.ID, spec)
}

func (r *runner) worker(jobs chan frameJob, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		for _, roi := range job.rois {
			if roi.Measure() == roicfg.MeasureNone {
				r.countLitGroups(job.frame, roi)
			} else {
				r.readRegion(job.frame, roi)
			}
		}
	}
}

func (r *runner) diagnostics(set *telemetry.SeriesSet, framesDone int64) Diagnostics {
	diag := Diagnostics{
		FramesSampled:     framesDone,
		InvalidByReason:   map[telemetry.InvalidReason]int64{},
		AvgOCRNanoseconds: r.avgOcrNS.Load(),
	}
	for _, series := range set.Series {
		diag.Observations += int64(len(series.Samples))
		diag.Conflicts += int64(len(series.Conflicts))
		for _, s := range series.Samples {
			if !s.Valid {
				diag.InvalidByReason[s.Reason]++
			}
		}
	}
	return diag
}
