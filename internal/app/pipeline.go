package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/vestir/internal/capture"
	"github.com/ayusman/vestir/internal/detector"
	"github.com/cyclopcam/logs"
)

// maxSourceErrors is how many consecutive source failures Run tolerates
// before giving up.
const maxSourceErrors = 30

// Source produces perception frames. It returns detector.ErrEndOfStream
// when it has nothing more to give.
type Source interface {
	Next(ctx context.Context) (*detector.Frame, error)
}

// Run pulls frames from src at the configured rate until ctx is cancelled
// or the source ends. On return all gesture state is discarded and every
// garment is removed.
func (a *App) Run(ctx context.Context, src Source) error {
	a.log.Infof("Pipeline started (session %s, %d fps)", a.session, a.config.FPS)
	defer func() {
		a.Reset()
		a.log.Infof("Pipeline stopped after %d frames", a.frames)
	}()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := src.Next(ctx)
		switch {
		case err == nil:
			failures = 0
			a.ProcessFrame(frame)
		case errors.Is(err, detector.ErrEndOfStream):
			a.log.Infof("Frame source ended")
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			failures++
			if failures >= maxSourceErrors {
				return fmt.Errorf("frame source: %w", err)
			}
			a.log.Warnf("Error reading frame: %v", err)
		}
	}
}

// CameraSource reads camera frames and runs perception on them.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
	log      logs.Log
}

// NewCameraSource wraps an open camera and a detector.
func NewCameraSource(camera capture.Camera, det detector.Detector, log logs.Log) *CameraSource {
	return &CameraSource{camera: camera, detector: det, log: log}
}

// OpenCameraSource opens the configured camera.
func OpenCameraSource(config capture.Config, det detector.Detector, log logs.Log) (*CameraSource, error) {
	camera := capture.NewCamera(config)
	if err := camera.Open(); err != nil {
		return nil, err
	}
	log.Infof("Camera %d opened at %d fps", config.DeviceID, camera.FPS())
	return NewCameraSource(camera, det, log), nil
}

// Next captures one frame and detects hands and pose in it.
func (s *CameraSource) Next(ctx context.Context) (*detector.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := s.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer mat.Close()

	frame, err := s.detector.Detect(mat)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	return frame, nil
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	return errors.Join(s.camera.Close(), s.detector.Close())
}

type recordedSource struct {
	src Source
	rec *detector.Recorder
	log logs.Log
}

// Recorded returns a Source that writes every frame src yields to rec, so
// a session can be replayed later.
func Recorded(src Source, rec *detector.Recorder, log logs.Log) Source {
	return &recordedSource{src: src, rec: rec, log: log}
}

func (r *recordedSource) Next(ctx context.Context) (*detector.Frame, error) {
	frame, err := r.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.rec.Write(frame); err != nil {
		r.log.Errorf("Recording failed: %v", err)
	}
	return frame, nil
}
