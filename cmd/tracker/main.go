// Command tracker is the tracking pipeline's driver loop (spec.md §5): it
// reads frames from a source (live radar or offline CSV replay), normalizes
// them into world-frame points, steps the track buffer once per frame, and
// publishes the result over SSE.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/radar.track/internal/config"
	"github.com/banshee-data/radar.track/internal/normalize"
	"github.com/banshee-data/radar.track/internal/source"
	"github.com/banshee-data/radar.track/internal/storage/sqlite"
	"github.com/banshee-data/radar.track/internal/track"
	"github.com/banshee-data/radar.track/internal/trackmon"
	"github.com/banshee-data/radar.track/internal/trackview"
	"github.com/banshee-data/radar.track/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "HTTP listen address for the SSE track view")
	port         = flag.String("port", "/dev/ttySC1", "Serial port to read live radar frames from")
	replayDir    = flag.String("replay-dir", "", "Directory of numbered CSV replay files; when set, replaces the live serial source")
	readAhead    = flag.Int("replay-read-ahead", 4, "Number of frames to keep buffered ahead of the replay cursor")
	configFile   = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	dbPathFlag   = flag.String("db-path", "completed_tracks.db", "Path to the completed-track export sqlite database")
	frameRate    = flag.Duration("frame-period", 50*time.Millisecond, "Minimum wall-clock period between frames; the loop sleeps to avoid outrunning a replay source")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	configureLogStreams()

	if *versionFlag {
		fmt.Printf("radar.track v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	tuningCfg, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config from %s: %v", *configFile, err)
	}
	log.Printf("loaded tuning configuration from %s", *configFile)

	trackCfg, err := track.NewConfigFromTuning(tuningCfg)
	if err != nil {
		log.Fatalf("failed to build track config: %v", err)
	}
	normCfg := normalize.Config{
		TiltRadians: tuningCfg.GetSensorTilt(),
		Height:      tuningCfg.GetSensorHeight(),
		ZMax:        tuningCfg.GetTrZThresh(),
	}

	store, err := sqlite.Open(*dbPathFlag)
	if err != nil {
		log.Fatalf("failed to open completed-track store at %s: %v", *dbPathFlag, err)
	}
	defer store.Close()

	var src source.Source
	if *replayDir != "" {
		src = source.NewCSVReplay(*replayDir, *readAhead)
		log.Printf("replaying frames from %s", *replayDir)
	} else {
		radarPort, err := source.NewRadarPort(*port)
		if err != nil {
			log.Fatalf("failed to open radar port %s: %v", *port, err)
		}
		defer radarPort.Close()
		src = radarPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rp, ok := src.(*source.RadarPort); ok {
		go func() {
			if err := rp.Monitor(ctx); err != nil {
				trackmon.Opsf("radar port monitor exited: %v", err)
			}
		}()
	}

	hub := trackview.NewHub()
	mux := http.NewServeMux()
	hub.AttachAdminRoutes(mux)
	server := &http.Server{Addr: *listen, Handler: mux}
	go func() {
		log.Printf("serving track view on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("track view server failed: %v", err)
		}
	}()

	buffer := track.NewBuffer(trackCfg)
	buffer.OnRetire = func(tr *track.Track) {
		now := time.Now().UnixNano()
		rec := sqlite.FromTrack(tr, now, now)
		if err := store.InsertCompletedTrack(rec); err != nil {
			trackmon.Opsf("failed to export completed track %d: %v", tr.ID, err)
		}
	}

	runLoop(ctx, src, buffer, hub, normCfg, *frameRate)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: track view server did not shut down cleanly: %v", err)
	}
}

// runLoop is the pull-driven per-frame cycle (spec.md §5): read one frame,
// normalize it, step the buffer, and publish the resulting tracks. It
// returns once the source is exhausted (offline replay) or ctx is canceled.
func runLoop(ctx context.Context, src source.Source, buffer *track.Buffer, hub *trackview.Hub, normCfg normalize.Config, period time.Duration) {
	var lastFrameAt time.Time
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ok, frameIndex, frame, err := src.Read()
		if err != nil {
			trackmon.Opsf("source read failed at frame %d: %v", frameIndex, err)
			return
		}

		now := time.Now()
		dt := period.Seconds()
		if !lastFrameAt.IsZero() {
			dt = now.Sub(lastFrameAt).Seconds()
		}
		lastFrameAt = now

		if !ok {
			// The source reported a gap at this frame index (e.g. a dropped
			// frame mid-replay, internal/source/csv.go's Read) rather than an
			// error: spec.md §6 skips association/update for the frame but
			// still lets tracks predict-drift and their lifetimes accumulate,
			// so a stale track is still retired on schedule.
			buffer.PredictOnly(dt)
			hub.Publish(trackview.BuildSnapshots(buffer.Tracks()))
			if elapsed := time.Since(now); elapsed < period {
				time.Sleep(period - elapsed)
			}
			continue
		}

		points := normalize.Normalize(*frame, normCfg)
		buffer.Step(points, dt)
		hub.Publish(trackview.BuildSnapshots(buffer.Tracks()))

		if elapsed := time.Since(now); elapsed < period {
			time.Sleep(period - elapsed)
		}
	}
}

// configureLogStreams wires the three-stream logger (internal/trackmon) to
// files named by RADAR_TRACK_{OPS,DIAG,TRACE}_LOG, mirroring
// cmd/radar/radar.go's VELOCITY_LIDAR_{OPS,DEBUG,TRACE}_LOG convention.
// Unset streams stay silent.
func configureLogStreams() {
	opsPath := os.Getenv("RADAR_TRACK_OPS_LOG")
	diagPath := os.Getenv("RADAR_TRACK_DIAG_LOG")
	tracePath := os.Getenv("RADAR_TRACK_TRACE_LOG")
	if opsPath == "" && diagPath == "" && tracePath == "" {
		return
	}

	var ops, diag, trace io.Writer
	if f, err := openLogFile(opsPath); err == nil {
		ops = f
	} else if opsPath != "" {
		log.Printf("warning: %v", err)
	}
	if f, err := openLogFile(diagPath); err == nil {
		diag = f
	} else if diagPath != "" {
		log.Printf("warning: %v", err)
	}
	if f, err := openLogFile(tracePath); err == nil {
		trace = f
	} else if tracePath != "" {
		log.Printf("warning: %v", err)
	}
	trackmon.SetLogWriters(ops, diag, trace)
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no path set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
