package media

import (
	"fmt"
	"os/exec"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/debuglog"
)

// Launcher opens entry links in an external application.
type Launcher struct {
	defaultOpener string
	trailerPlayer string
	detector      *Detector
	command       func(name string, args ...string) *exec.Cmd
}

func NewLauncher(cfg *config.Config) *Launcher {
	detector, err := NewDetector()
	if err != nil {
		debuglog.Warnf("link types unavailable: %v", err)
		detector = &Detector{config: &linkTypesConfig{}}
	}

	opener := cfg.UI.DefaultOpener
	if opener == "" {
		opener = detector.DefaultOpener()
	}

	l := &Launcher{
		defaultOpener: opener,
		detector:      detector,
		command:       exec.Command,
	}
	if cfg.UI.TrailerPlayer != "" {
		l.trailerPlayer = findCommand(cfg.UI.TrailerPlayer)
	}
	return l
}

// Kind exposes link classification for the detail view.
func (l *Launcher) Kind(link string) Kind {
	return l.detector.Detect(link)
}

// Open starts the application for link and returns without waiting for it.
func (l *Launcher) Open(link string) error {
	kind := l.detector.Detect(link)
	if kind == KindUnknown {
		return fmt.Errorf("not an http(s) link: %q", link)
	}

	name := l.defaultOpener
	if kind == KindTrailer && l.trailerPlayer != "" {
		name = l.trailerPlayer
	}
	if name == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd := l.command(name, link)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	debuglog.WithFields(debuglog.Fields{"cmd": name, "kind": kind}).Debugf("opened %s", link)

	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
