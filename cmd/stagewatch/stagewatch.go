package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/stagewatch/stagewatch/pkg/ocr"
	"github.com/stagewatch/stagewatch/pkg/pipeline"
	"github.com/stagewatch/stagewatch/pkg/roicfg"
	"github.com/stagewatch/stagewatch/pkg/teledb"
	"github.com/stagewatch/stagewatch/pkg/video"
)

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("stagewatch", "Extract flight telemetry from a launch webcast video")
	configFile := parser.String("c", "config", &argparse.Options{Help: "ROI config file (JSON)", Required: true})
	input := parser.String("i", "input", &argparse.Options{Help: "Input video file (default: video_source.url from the config)", Required: false, Default: ""})
	dbFile := parser.String("d", "db", &argparse.Options{Help: "Write results to this SQLite database", Required: false, Default: ""})
	jsonFile := parser.String("o", "json", &argparse.Options{Help: "Write series and events as JSON to this file", Required: false, Default: ""})
	stride := parser.Int("s", "stride", &argparse.Options{Help: "OCR every Nth frame", Required: false, Default: 30})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Number of OCR workers", Required: false, Default: runtime.NumCPU()})
	language := parser.String("", "lang", &argparse.Options{Help: "Tesseract language", Required: false, Default: "eng"})
	quiet := parser.Flag("q", "quiet", &argparse.Options{Help: "No progress output", Required: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	cfg, err := roicfg.Load(*configFile)
	check(err)

	videoFile := *input
	if videoFile == "" {
		videoFile = cfg.VideoSource.URL
	}
	if videoFile == "" {
		check(fmt.Errorf("No input video: give -i, or set video_source.url in the config"))
	}

	src, err := video.OpenFile(videoFile)
	check(err)
	defer src.Close()

	reader, err := ocr.NewTesseract(logger, *language, *workers)
	check(err)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Infof("Interrupted, finishing current batch")
		cancel()
	}()

	options := pipeline.DefaultOptions()
	options.StrideFrames = *stride
	options.Workers = *workers
	if !*quiet {
		options.Progress = func(p pipeline.Progress) {
			if p.TotalFrames > 0 {
				fmt.Printf("\rFrame %v / %v", p.FrameIndex, p.TotalFrames)
			} else {
				fmt.Printf("\rFrame %v", p.FrameIndex)
			}
		}
	}

	result, err := pipeline.Run(ctx, logger, cfg, src, reader, options)
	if !*quiet {
		fmt.Printf("\n")
	}
	check(err)

	if *dbFile != "" {
		db, err := teledb.Open(logger, *dbFile)
		check(err)
		runID, err := db.SaveRun(result, videoFile, cfg.Version)
		check(err)
		logger.Infof("Saved as run %v in %v", runID, *dbFile)
	}

	if *jsonFile != "" {
		out, err := os.Create(*jsonFile)
		check(err)
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		check(encoder.Encode(map[string]any{
			"series":      result.Series,
			"events":      result.Events,
			"diagnostics": result.Diagnostics,
			"completed":   result.Completed,
		}))
		check(out.Close())
	}

	for _, ev := range result.Events {
		fmt.Printf("%-16v %-10v frames %v..%v (confidence %.2f)\n", ev.Kind, ev.Vehicle, ev.FirstFrame, ev.LastFrame, ev.Confidence)
	}
}
