package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultCaptureTimeout bounds one headless browser capture
const DefaultCaptureTimeout = 60 * time.Second

// ChromeCapturer takes full page screenshots with a headless Chrome instance
type ChromeCapturer struct {
	Timeout  time.Duration
	ExecPath string
}

// Capture navigates to url and returns a full page PNG. Certificate errors
// are ignored so misconfigured sites can still be captured.
func (c *ChromeCapturer) Capture(ctx context.Context, url string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(DefaultUserAgent),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var buf []byte
	// quality 100 encodes PNG
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.FullScreenshot(&buf, 100),
	); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	return buf, nil
}
