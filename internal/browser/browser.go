// Package browser opens links in the user's default browser or mail client.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// Opener launches the platform URL handler. The handler process is started
// and never waited on.
type Opener struct {
	goos  string
	start func(name string, args ...string) error
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startDetached}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// OpenURL hands link to the system handler.
func (o *Opener) OpenURL(link string) error {
	name, args, err := command(o.goos, link)
	if err != nil {
		return err
	}
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", link, err)
	}
	return nil
}

// command returns the handler invocation for link on goos. Only http, https
// and mailto links are accepted so header content can never select another
// handler.
func command(goos, link string) (string, []string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", nil, fmt.Errorf("invalid link %q: %w", link, err)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", nil, fmt.Errorf("refusing to open %q: unsupported scheme", link)
	}

	switch goos {
	case "darwin":
		return "open", []string{link}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{link}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform %s", goos)
}
