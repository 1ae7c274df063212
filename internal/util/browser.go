package util

import (
	"context"
	"os/exec"
	"runtime"
	"time"
)

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// OpenBrowserAfter opens url once delay has passed, unless ctx ends first.
// It is fire-and-forget; failures go to onErr when set.
func OpenBrowserAfter(ctx context.Context, url string, delay time.Duration, onErr func(error)) {
	go func() {
		t := time.NewTimer(delay)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if err := OpenBrowser(url); err != nil && onErr != nil {
			onErr(err)
		}
	}()
}
