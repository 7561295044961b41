package resource

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// IOLimitBytesPerSec is the maximum write throughput. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller hands out IO tokens. A nil *Controller imposes no limit.
type Controller struct {
	cfg       Config
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// IOLimit returns the configured limit in bytes per second (0 if unlimited).
func (c *Controller) IOLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.IOLimitBytesPerSec
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are taken in burst-sized chunks.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(timeNow(), bytes)
}

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{w: w, rc: rc, ctx: ctx}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

var timeNow = time.Now
