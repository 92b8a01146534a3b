// Package opener reveals a project folder in the host file browser.
//
// The launch is fire-and-forget: OpenFolder returns once the browser
// process has started and never reports on what that process does next.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/BeFlock/bereshit/internal/logging"
	"github.com/BeFlock/bereshit/internal/project"
	"go.uber.org/zap"
)

// Platform selects which native launcher is used.
type Platform string

const (
	Windows Platform = "windows"
	Darwin  Platform = "darwin"
	Linux   Platform = "linux"
)

// CurrentPlatform returns the platform tag for the running OS. Every OS
// other than Windows and macOS is treated as a freedesktop POSIX system.
func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// PlatformFor maps a GOOS value to a platform tag.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin", "ios":
		return Darwin
	default:
		return Linux
	}
}

// ParsePlatform parses a configured platform tag. An empty string selects
// CurrentPlatform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CurrentPlatform(), nil
	case "windows":
		return Windows, nil
	case "darwin", "macos":
		return Darwin, nil
	case "linux", "posix":
		return Linux, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want windows, darwin or linux)", s)
	}
}

// FolderOpener opens a directory in the host file browser.
type FolderOpener interface {
	OpenFolder(ctx context.Context, path string) error
}

// Spawner starts a process without waiting for it to finish.
type Spawner interface {
	Spawn(name string, args ...string) error
}

// Launcher holds one method per native launch behaviour.
type Launcher interface {
	OpenWindows(path string) error
	OpenDarwin(path string) error
	OpenPOSIX(path string) error
}

// ExecSpawner starts real OS processes.
type ExecSpawner struct{}

// Spawn starts name with args and reaps it in the background.
func (ExecSpawner) Spawn(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 -- name is one of the fixed launchers
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// NativeLauncher maps each platform to its native browser command.
type NativeLauncher struct {
	spawner Spawner
}

// NewLauncher creates a launcher that runs commands through spawner.
func NewLauncher(spawner Spawner) *NativeLauncher {
	return &NativeLauncher{spawner: spawner}
}

// OpenWindows runs explorer.
func (l *NativeLauncher) OpenWindows(path string) error {
	return l.spawner.Spawn("explorer", path)
}

// OpenDarwin runs open.
func (l *NativeLauncher) OpenDarwin(path string) error {
	return l.spawner.Spawn("open", path)
}

// OpenPOSIX runs xdg-open.
func (l *NativeLauncher) OpenPOSIX(path string) error {
	return l.spawner.Spawn("xdg-open", path)
}

// Opener dispatches to the launcher method for its platform.
type Opener struct {
	platform Platform
	launcher Launcher
}

// New creates an Opener for platform using launcher.
func New(platform Platform, launcher Launcher) *Opener {
	return &Opener{platform: platform, launcher: launcher}
}

// NewSystem creates an Opener for the running OS that spawns real processes.
func NewSystem() *Opener {
	return New(CurrentPlatform(), NewLauncher(ExecSpawner{}))
}

// Platform returns the platform tag this opener dispatches on.
func (o *Opener) Platform() Platform {
	return o.platform
}

// OpenFolder starts the native file browser for path.
func (o *Opener) OpenFolder(ctx context.Context, path string) error {
	var err error
	switch o.platform {
	case Windows:
		err = o.launcher.OpenWindows(path)
	case Darwin:
		err = o.launcher.OpenDarwin(path)
	default:
		err = o.launcher.OpenPOSIX(path)
	}
	if err != nil {
		return project.IOError("Failed to open folder", err)
	}

	logging.FromContext(ctx).Debug(ctx, "folder opened",
		zap.String("platform", string(o.platform)),
		zap.String("path", path),
	)
	return nil
}

// Nop records requested paths instead of launching anything.
type Nop struct {
	mu     sync.Mutex
	opened []string
}

// OpenFolder records path.
func (n *Nop) OpenFolder(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, path)
	return nil
}

// Opened returns the paths passed to OpenFolder so far.
func (n *Nop) Opened() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.opened...)
}
