package shim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"hookshim/pkg/protocol"
)

// BinaryName is the name the shim is installed under before being
// symlinked or copied to a hook name.
const BinaryName = "hookshim"

// Layout holds the paths derived once at startup.
type Layout struct {
	Dir        string // Absolute directory containing the invoked hook
	Hook       string // Hook name the shim stands in for
	RunScript  string // Absolute path of the delegated run script
	LockedFile string // Absolute path of the hook's locked payload
}

// HookName returns the hook this process stands in for, derived from argv[0].
// A bare hookshim binary stands in for the default hook.
func HookName(argv0 string) string {
	if argv0 == "" {
		return protocol.DefaultHookName
	}
	base := filepath.Base(argv0)
	switch strings.TrimSuffix(base, ".exe") {
	case BinaryName, ".", string(filepath.Separator):
		return protocol.DefaultHookName
	}
	return base
}

// ScriptDir resolves the absolute directory of the invoked hook.
// A path in argv[0] is made absolute without resolving symlinks, so a
// symlinked hook resolves relative to its own directory. A bare name is
// looked up in PATH, and the running executable is the last resort.
func ScriptDir(argv0 string) (string, error) {
	path := argv0
	if !strings.ContainsRune(argv0, filepath.Separator) && !strings.ContainsRune(argv0, '/') {
		path = ""
		if argv0 != "" {
			if found, err := exec.LookPath(argv0); err == nil {
				path = found
			}
		}
		if path == "" {
			exe, err := os.Executable()
			if err != nil {
				return "", fmt.Errorf("locate executable: %w", err)
			}
			path = exe
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return filepath.Dir(abs), nil
}

// NewLayout computes the run script and locked file paths for hook in dir.
func NewLayout(dir, hook string, cfg *Config) Layout {
	return Layout{
		Dir:        dir,
		Hook:       hook,
		RunScript:  resolve(dir, cfg.RunScript),
		LockedFile: resolve(dir, cfg.LockedFile(hook)),
	}
}

// Invocation builds the child invocation for args.
func (l Layout) Invocation(args []string) *protocol.Invocation {
	return &protocol.Invocation{
		RunScript:  l.RunScript,
		LockedFile: l.LockedFile,
		Args:       args,
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
