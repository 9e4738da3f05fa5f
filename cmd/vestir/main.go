package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/ayusman/vestir/internal/app"
	"github.com/ayusman/vestir/internal/capture"
	"github.com/ayusman/vestir/internal/detector"
	"github.com/ayusman/vestir/internal/garment"
	"github.com/ayusman/vestir/internal/plugin"
	"github.com/ayusman/vestir/internal/server"
	"github.com/ayusman/vestir/internal/store"
	"github.com/cyclopcam/logs"
)

const pluginTimeoutMs = 5000

func main() {
	logger, err := logs.NewLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		logger.Errorf("Failed to get home directory: %v", err)
		os.Exit(1)
	}
	dataDir := filepath.Join(home, ".vestir")

	parser := argparse.NewParser("vestir", "Virtual fitting engine: gesture control and garment placement over a tracked body")
	dbPath := parser.String("", "db", &argparse.Options{Help: "SQLite database", Default: filepath.Join(dataDir, "vestir.db")})
	addr := parser.String("", "addr", &argparse.Options{Help: "HTTP listen address", Default: ":8080"})
	cameraID := parser.Int("", "camera", &argparse.Options{Help: "Camera device index", Default: 0})
	replay := parser.String("", "replay", &argparse.Options{Help: "Play perception frames from a JSONL recording instead of the camera"})
	record := parser.String("", "record", &argparse.Options{Help: "Record perception frames to a JSONL file"})
	fps := parser.Int("", "fps", &argparse.Options{Help: "Frames per second", Default: app.DefaultFPS})
	pluginDir := parser.String("", "plugins", &argparse.Options{Help: "Plugin directory", Default: filepath.Join(dataDir, "plugins")})
	webDir := parser.String("", "web", &argparse.Options{Help: "Directory of static files for the viewer"})
	noMirror := parser.Flag("", "no-mirror", &argparse.Options{Help: "Show the camera view instead of the selfie view", Default: false})
	garments := parser.StringList("", "garment", &argparse.Options{Help: "Garment to load at startup, as id:category:path (repeatable)"})
	if err := parser.Parse(os.Args); err != nil {
		logger.Errorf("%s", parser.Usage(err))
		os.Exit(1)
	}

	if err := run(logger, options{
		dbPath:    *dbPath,
		addr:      *addr,
		cameraID:  *cameraID,
		replay:    *replay,
		record:    *record,
		fps:       *fps,
		pluginDir: *pluginDir,
		webDir:    *webDir,
		mirror:    !*noMirror,
		garments:  *garments,
	}); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

type options struct {
	dbPath    string
	addr      string
	cameraID  int
	replay    string
	record    string
	fps       int
	pluginDir string
	webDir    string
	mirror    bool
	garments  []string
}

func run(logger logs.Log, opt options) error {
	if err := os.MkdirAll(filepath.Dir(opt.dbPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(opt.dbPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	config := app.DefaultConfig()
	config.Mirror = opt.mirror
	config.FPS = opt.fps
	settings, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if err := config.ApplySettings(settings, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plugins := plugin.NewManager(opt.pluginDir, logger)
	if err := plugins.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(pluginTimeoutMs), st.Bindings(), logger, 32)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	config.Store = st
	config.Dispatcher = dispatcher
	session, err := app.New(config, logger)
	if err != nil {
		return err
	}

	for _, spec := range opt.garments {
		if err := loadGarment(session, spec); err != nil {
			return err
		}
	}

	src, closeSource, err := openSource(logger, opt)
	if err != nil {
		return err
	}
	defer closeSource()

	srv := server.New(server.Config{
		StaticDir: opt.webDir,
		Store:     st,
		App:       session,
		Log:       logger,
	})
	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", opt.addr)
		serverErr <- srv.ListenAndServe(ctx, opt.addr)
		stop()
	}()

	pipelineErr := session.Run(ctx, src)
	stop()
	if err := <-serverErr; err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return pipelineErr
}

// loadGarment parses id:category:path and loads the model.
func loadGarment(session *app.App, spec string) error {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("garment %q: want id:category:path", spec)
	}
	category, err := garment.ParseCategory(parts[1])
	if err != nil {
		return fmt.Errorf("garment %q: %w", spec, err)
	}
	if _, err := session.LoadGarmentFile(parts[0], category, parts[2]); err != nil {
		return fmt.Errorf("garment %q: %w", spec, err)
	}
	return nil
}

func openSource(logger logs.Log, opt options) (app.Source, func(), error) {
	var src app.Source
	var closers []func() error

	if opt.replay != "" {
		rs, err := detector.OpenReplay(opt.replay)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Replaying %s", opt.replay)
		src = rs
		closers = append(closers, rs.Close)
	} else {
		var det detector.Detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			det = mp
			logger.Infof("Using MediaPipe perception")
		} else {
			logger.Warnf("MediaPipe not available (%v), frames will carry no landmarks", err)
			det = detector.NewMockDetector()
		}

		camConfig := capture.DefaultConfig()
		camConfig.DeviceID = opt.cameraID
		camConfig.FPS = opt.fps
		cs, err := app.OpenCameraSource(camConfig, det, logger)
		if err != nil {
			det.Close()
			return nil, nil, err
		}
		src = cs
		closers = append(closers, cs.Close)
	}

	if opt.record != "" {
		rec, err := detector.CreateRecording(opt.record)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		logger.Infof("Recording frames to %s", opt.record)
		src = app.Recorded(src, rec, logger)
		closers = append(closers, rec.Close)
	}

	return src, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warnf("Close: %v", err)
			}
		}
	}, nil
}
