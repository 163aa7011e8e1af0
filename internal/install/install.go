// Package install manages the hook side of a plugin tree: it links hook
// names in a hooks directory to a single hookshim binary and checks that
// each linked hook has the collaborators it delegates to.
package install

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hookshim/pkg/protocol"
)

// Installer links hooks in HooksDir to Binary.
type Installer struct {
	binary   string // Absolute path of the hookshim binary
	hooksDir string // Absolute path of the plugin's hooks directory
	logger   *log.Logger
}

// Config holds configuration for creating a new Installer.
type Config struct {
	Binary   string
	HooksDir string
	Logger   *log.Logger
}

// New creates an installer. Both paths are made absolute.
func New(cfg Config) (*Installer, error) {
	if cfg.Binary == "" || cfg.HooksDir == "" {
		return nil, fmt.Errorf("binary and hooks directory are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[install] ", log.LstdFlags|log.Lmsgprefix)
	}

	binary, err := filepath.Abs(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("resolve binary: %w", err)
	}
	hooksDir, err := filepath.Abs(cfg.HooksDir)
	if err != nil {
		return nil, fmt.Errorf("resolve hooks directory: %w", err)
	}

	return &Installer{binary: binary, hooksDir: hooksDir, logger: cfg.Logger}, nil
}

// EnsureBinary verifies the hookshim binary is a regular executable file.
func (in *Installer) EnsureBinary() error {
	stat, err := os.Stat(in.binary)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("hookshim binary not found at %s", in.binary)
		}
		return fmt.Errorf("stat binary: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return fmt.Errorf("binary at %s is not a regular file", in.binary)
	}
	if stat.Mode()&0111 == 0 {
		return fmt.Errorf("binary at %s is not executable (mode: %o)", in.binary, stat.Mode())
	}
	return nil
}

// Link creates a symlink to the binary for each hook. A hook already
// linked to the binary is left alone; any other existing file is an error.
func (in *Installer) Link(hooks []string) error {
	for _, hook := range hooks {
		if err := validateHookName(hook); err != nil {
			return fmt.Errorf("invalid hook %q: %w", hook, err)
		}
	}
	if err := in.EnsureBinary(); err != nil {
		return err
	}
	if err := os.MkdirAll(in.hooksDir, 0755); err != nil {
		return fmt.Errorf("create hooks directory: %w", err)
	}

	for _, hook := range hooks {
		linkPath := filepath.Join(in.hooksDir, hook)
		linked, err := in.isLinked(linkPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if linked {
			continue
		}
		if err == nil {
			return fmt.Errorf("%s exists and is not a link to %s", linkPath, in.binary)
		}

		if err := os.Symlink(in.binary, linkPath); err != nil {
			return fmt.Errorf("create symlink for %s: %w", hook, err)
		}
		in.logger.Printf("linked %s -> %s", linkPath, in.binary)
	}
	return nil
}

// Unlink removes the symlinks for hooks. Entries that are not links to
// the binary are left in place.
func (in *Installer) Unlink(hooks []string) error {
	for _, hook := range hooks {
		if err := validateHookName(hook); err != nil {
			return fmt.Errorf("invalid hook %q: %w", hook, err)
		}

		linkPath := filepath.Join(in.hooksDir, hook)
		linked, err := in.isLinked(linkPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if !linked {
			in.logger.Printf("warning: %s is not managed by hookshim, leaving it", linkPath)
			continue
		}

		if err := os.Remove(linkPath); err != nil {
			return fmt.Errorf("remove %s: %w", linkPath, err)
		}
		in.logger.Printf("unlinked %s", linkPath)
	}
	return nil
}

// Reconcile makes the set of linked hooks equal to hooks.
func (in *Installer) Reconcile(hooks []string) error {
	current, err := in.Linked()
	if err != nil {
		return err
	}

	want := makeSet(hooks)
	var stale []string
	for _, hook := range current {
		if !want[hook] {
			stale = append(stale, hook)
		}
	}

	if err := in.Unlink(stale); err != nil {
		return err
	}
	return in.Link(hooks)
}

// Linked returns the sorted names of hooks linked to the binary.
func (in *Installer) Linked() ([]string, error) {
	entries, err := os.ReadDir(in.hooksDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read hooks directory: %w", err)
	}

	var hooks []string
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		linked, err := in.isLinked(filepath.Join(in.hooksDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if linked {
			hooks = append(hooks, entry.Name())
		}
	}
	sort.Strings(hooks)
	return hooks, nil
}

// Problem is a missing collaborator for a linked hook.
type Problem struct {
	Hook string
	Path string
	What string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s (%s)", p.Hook, p.What, p.Path)
}

// Check reports linked hooks whose run script or locked file is missing.
// runScript is resolved against the hooks directory unless absolute, and
// lockedFile maps a hook name to its locked file name.
func (in *Installer) Check(runScript string, lockedFile func(hook string) string) ([]Problem, error) {
	hooks, err := in.Linked()
	if err != nil {
		return nil, err
	}

	if runScript == "" {
		runScript = protocol.DefaultRunScript
	}
	if !filepath.IsAbs(runScript) {
		runScript = filepath.Join(in.hooksDir, runScript)
	}
	if lockedFile == nil {
		lockedFile = protocol.LockedFileName
	}

	var problems []Problem
	for _, hook := range hooks {
		if stat, err := os.Stat(runScript); err != nil || stat.Mode()&0111 == 0 || stat.IsDir() {
			problems = append(problems, Problem{Hook: hook, Path: runScript, What: "run script missing or not executable"})
		}

		locked := lockedFile(hook)
		if !filepath.IsAbs(locked) {
			locked = filepath.Join(in.hooksDir, locked)
		}
		if _, err := os.Stat(locked); err != nil {
			problems = append(problems, Problem{Hook: hook, Path: locked, What: "locked file missing"})
		}
	}
	return problems, nil
}

// isLinked reports whether path is a symlink resolving to the binary.
func (in *Installer) isLinked(path string) (bool, error) {
	stat, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if stat.Mode()&fs.ModeSymlink == 0 {
		return false, nil
	}

	target, err := os.Readlink(path)
	if err != nil {
		return false, fmt.Errorf("read link %s: %w", path, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target) == in.binary, nil
}

// validateHookName ensures a hook name is a plain file name.
func validateHookName(name string) error {
	if name == "" {
		return fmt.Errorf("hook name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("hook name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("hook name cannot be %q", name)
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("hook name cannot contain null bytes")
	}
	if strings.HasSuffix(name, protocol.LockedSuffix) {
		return fmt.Errorf("hook name cannot end in %s", protocol.LockedSuffix)
	}
	return nil
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
