// Command lanedetect runs lane detection on a camera or video file and
// reports a steering error per frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gocv.io/x/gocv"
	"tailscale.com/tsweb"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/envflag"
	"github.com/banshee-data/lanekeeper/internal/lane"
	"github.com/banshee-data/lanekeeper/internal/report"
	"github.com/banshee-data/lanekeeper/internal/runlog"
	"github.com/banshee-data/lanekeeper/internal/steerfeed"
	"github.com/banshee-data/lanekeeper/internal/steerout"
	"github.com/banshee-data/lanekeeper/internal/version"
	"github.com/banshee-data/lanekeeper/internal/vision"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Detector configuration JSON file")
	source      = flag.String("source", "0", "Camera index or video file")
	output      = flag.String("output", "", "Write annotated frames to this video file (empty disables)")
	outFPS      = flag.Float64("out-fps", 30, "Frame rate of the output video")
	serialPort  = flag.String("serial", "", "Serial device for steering output (empty disables)")
	baudRate    = flag.Int("baud", 115200, "Serial baud rate")
	maxAngle    = flag.Float64("max-angle", steerout.DefaultMaxAngle, "Clamp for steering commands in degrees")
	dbFile      = flag.String("db", "lanekeeper.db", "Run log SQLite file (empty disables)")
	listen      = flag.String("listen", "", "Debug HTTP listen address, e.g. :8082 (empty disables)")
	grpcListen  = flag.String("grpc-listen", "", "Steering feed gRPC listen address, e.g. localhost:50061 (empty disables)")
	maxFrames   = flag.Int("max-frames", 0, "Stop after this many frames (0 runs to end of stream)")
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
		fmt.Println(version.Banner("lanedetect"))
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

	det, err := lane.NewDetectorFromFile(*configPath, lane.WithLogger(lane.NewLogger("src="+*source, w)))
	if err != nil {
		log.Fatalf("failed to create detector: %v", err)
	}
	pipeline := vision.NewPipeline(det)

	capture, err := vision.OpenSource(*source)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer capture.Close()

	var writer *gocv.VideoWriter
	if *output != "" {
		writer, err = vision.OpenWriter(*output, *outFPS, det.Width(), det.Height())
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer writer.Close()
	}

	var sink steerout.Sender = steerout.DisabledSink{}
	if *serialPort != "" {
		s, err := steerout.Open(*serialPort, steerout.PortOptions{BaudRate: *baudRate}, *maxAngle)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sink = s
	}
	defer sink.Close()

	var store *runlog.Store
	var run *runlog.Run
	if *dbFile != "" {
		store, err = runlog.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open run log: %v", err)
		}
		defer store.Close()
		run, err = store.StartRun(*source, det.Config(), time.Now())
		if err != nil {
			log.Fatalf("failed to start run: %v", err)
		}
		log.Printf("recording run %s", run.ID)
	}

	recorder := report.NewRecorder(2000)

	var feed *steerfeed.Publisher
	if *grpcListen != "" {
		cfg := steerfeed.DefaultConfig()
		cfg.ListenAddr = *grpcListen
		cfg.Source = *source
		feed = steerfeed.NewPublisher(cfg)
		if err := feed.Start(); err != nil {
			log.Fatalf("failed to start steering feed: %v", err)
		}
		defer feed.Stop()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, *listen, store, recorder)
		}()
	}

	samples := processFrames(ctx, pipeline, capture, writer, sink, store, run, recorder, feed)

	if store != nil {
		if err := store.FinishRun(run.ID, time.Now()); err != nil {
			log.Printf("failed to finish run: %v", err)
		}
	}
	fmt.Print(report.Summarize(samples).String())

	// Keep the debug servers up until interrupted so the run can be inspected.
	if (*listen != "" || *grpcListen != "") && ctx.Err() == nil {
		log.Print("stream finished; servers still up, interrupt to exit")
		<-ctx.Done()
	}
	stop()
	wg.Wait()
}

func processFrames(ctx context.Context, p *vision.Pipeline, capture *gocv.VideoCapture, writer *gocv.VideoWriter,
	sink steerout.Sender, store *runlog.Store, run *runlog.Run, recorder *report.Recorder, feed *steerfeed.Publisher) []report.Sample {
	frame := gocv.NewMat()
	defer frame.Close()
	annotated := gocv.NewMat()
	defer annotated.Close()

	var samples []report.Sample
	for ctx.Err() == nil {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			log.Print("end of stream")
			break
		}

		res := p.Update(frame, &annotated)
		recorder.Add(res)
		if feed != nil {
			feed.Publish(res)
		}
		samples = append(samples, report.SampleOf(res))

		if err := sink.Send(res.Steering); err != nil {
			log.Printf("frame %d: %v", res.Frame, err)
		}
		if store != nil {
			if err := store.RecordFrame(run.ID, res); err != nil {
				log.Printf("frame %d: %v", res.Frame, err)
			}
		}
		if writer != nil {
			if err := writer.Write(annotated); err != nil {
				log.Printf("frame %d: failed to write output: %v", res.Frame, err)
			}
		}

		if *maxFrames > 0 && res.Frame >= uint64(*maxFrames) {
			break
		}
	}
	return samples
}

func serveDebug(ctx context.Context, addr string, store *runlog.Store, recorder *report.Recorder) {
	mux := http.NewServeMux()

	var debug *tsweb.DebugHandler
	if store != nil {
		debug = store.AttachDebugRoutes(mux)
		debug.Handle("run-chart", "Steering chart for a recorded run (?run=ID)",
			report.ChartHandler("Recorded steering", report.RunLoader(store)))
	} else {
		debug = tsweb.Debugger(mux)
	}
	debug.Handle("steering", "Live steering chart",
		report.ChartHandler("Live steering", func(*http.Request) ([]report.Sample, error) {
			return recorder.Samples(), nil
		}))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()
	log.Printf("debug server on %s/debug/", addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
}
