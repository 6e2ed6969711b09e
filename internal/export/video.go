package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Recorder appends snapshots to an MJPEG AVI file, stamping each frame with
// the simulation time.
type Recorder struct {
	w       mjpeg.AviWriter
	path    string
	scale   int
	label   bool
	quality int
	buf     bytes.Buffer
	frames  int
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Scale is the pixel size of one site.
	Scale int
	// FPS is the playback rate written to the AVI header.
	FPS int
	// Quality is the JPEG quality, 1-100.
	Quality int
	// NoLabel disables the time stamp.
	NoLabel bool
}

// NewRecorder creates the video file at path for a lattice of the given side.
func NewRecorder(path string, side int, opts RecorderOptions) (*Recorder, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.FPS <= 0 {
		opts.FPS = 25
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dim := int32(side * opts.Scale)
	w, err := mjpeg.New(path, dim, dim, int32(opts.FPS))
	if err != nil {
		return nil, fmt.Errorf("export: create video %s: %w", path, err)
	}
	return &Recorder{
		w:       w,
		path:    path,
		scale:   opts.Scale,
		label:   !opts.NoLabel,
		quality: opts.Quality,
	}, nil
}

// AddFrame encodes s as the next video frame.
func (r *Recorder) AddFrame(s Snapshot) error {
	img := Image(s, r.scale)
	if r.label {
		drawLabel(img, fmt.Sprintf("t=%.2f", s.Time()))
	}
	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("export: encode frame %d: %w", r.frames, err)
	}
	if err := r.w.AddFrame(r.buf.Bytes()); err != nil {
		return fmt.Errorf("export: add frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

// Frame implements run.Sink.
func (r *Recorder) Frame(_ int, s Snapshot) error { return r.AddFrame(s) }

// Finish appends the final state and closes the file.
func (r *Recorder) Finish(s Snapshot) error {
	if err := r.AddFrame(s); err != nil {
		r.w.Close()
		return err
	}
	return r.Close()
}

// Frames reports how many frames were written.
func (r *Recorder) Frames() int { return r.frames }

// Close finalizes the AVI index.
func (r *Recorder) Close() error {
	if err := r.w.Close(); err != nil {
		return fmt.Errorf("export: close video %s: %w", r.path, err)
	}
	return nil
}

func drawLabel(img *image.RGBA, label string) {
	face := basicfont.Face7x13
	b := img.Bounds()
	if b.Dy() < face.Height+4 {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(b.Min.X+3, b.Min.Y+face.Ascent+2),
	}
	d.DrawString(label)
}
