// Command lanereplay feeds recorded line segments through the lane detector
// without a camera, printing a run summary and optionally storing the run
// and plotting the steering error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/envflag"
	"github.com/banshee-data/lanekeeper/internal/lane"
	"github.com/banshee-data/lanekeeper/internal/report"
	"github.com/banshee-data/lanekeeper/internal/runlog"
	"github.com/banshee-data/lanekeeper/internal/timeutil"
	"github.com/banshee-data/lanekeeper/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Detector configuration JSON file")
	input       = flag.String("input", "-", "Segments file, one JSON frame per line (- for stdin)")
	dbFile      = flag.String("db", "", "Record the replay to this run log SQLite file")
	plotFile    = flag.String("plot", "", "Write a steering plot (.png, .svg or .pdf)")
	fps         = flag.Float64("fps", 0, "Pace frames at this rate (0 replays as fast as possible)")
	verbose     = flag.Bool("v", false, "Print every frame result")
	diagLog     = flag.Bool("diag", false, "Enable lane diagnostic logging")
	traceLog    = flag.Bool("trace", false, "Enable per-frame trace logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const envPrefix = "LANEKEEPER"

func main() {
	if err := envflag.Load(flag.CommandLine, envPrefix, ".env"); err != nil {
		log.Fatalf("invalid environment: %v", err)
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Banner("lanereplay"))
		return
	}

	w := lane.LogWriters{Ops: os.Stderr}
	if *diagLog {
		w.Diag = os.Stderr
	}
	if *traceLog {
		w.Trace = os.Stderr
	}
	lane.SetLogWriters(lane.LogWriters{Ops: os.Stderr})

	det, err := lane.NewDetectorFromFile(*configPath, lane.WithLogger(lane.NewLogger("replay", w)))
	if err != nil {
		log.Fatalf("failed to create detector: %v", err)
	}

	in := io.Reader(os.Stdin)
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("failed to open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rp := &replayer{det: det, clock: timeutil.RealClock{}}
	if *fps > 0 {
		rp.interval = time.Duration(float64(time.Second) / *fps)
	}
	if *verbose {
		rp.out = os.Stdout
	}

	if *dbFile != "" {
		store, err := runlog.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open run log: %v", err)
		}
		defer store.Close()
		run, err := store.StartRun(*input, det.Config(), time.Now())
		if err != nil {
			log.Fatalf("failed to start run: %v", err)
		}
		rp.store, rp.run = store, run
		log.Printf("recording run %s", run.ID)
	}

	if err := rp.replay(ctx, in); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	if rp.store != nil {
		if err := rp.store.FinishRun(rp.run.ID, time.Now()); err != nil {
			log.Printf("failed to finish run: %v", err)
		}
	}

	fmt.Print(report.Summarize(rp.samples).String())

	if *plotFile != "" {
		if err := report.SavePlot(rp.samples, fmt.Sprintf("Steering error: %s", *input), *plotFile); err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("wrote %s", *plotFile)
	}
}

// replayer drives a detector from recorded segment frames.
type replayer struct {
	det      *lane.Detector
	clock    timeutil.Clock
	interval time.Duration
	out      io.Writer // per-frame lines; nil disables

	store *runlog.Store
	run   *runlog.Run

	samples []report.Sample
}

func (rp *replayer) replay(ctx context.Context, r io.Reader) error {
	return scanFrames(r, func(segs []lane.Segment) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rp.interval > 0 && len(rp.samples) > 0 {
			rp.clock.Sleep(rp.interval)
		}

		res := rp.det.ProcessSegments(segs)
		rp.samples = append(rp.samples, report.SampleOf(res))

		if rp.out != nil {
			fmt.Fprintf(rp.out, "%d\t%s\t%.2f\tleft=%v\tright=%v\n",
				res.Frame, res.Steering.Branch, res.Steering.Angle, res.Lanes.Left, res.Lanes.Right)
		}
		if rp.store != nil {
			if err := rp.store.RecordFrame(rp.run.ID, res); err != nil {
				return err
			}
		}
		return nil
	})
}
