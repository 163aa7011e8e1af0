// Command hookshim-install links hook names in a plugin's hooks directory
// to a hookshim binary, and reports hooks whose run script or locked file
// is missing.
//
//	hookshim-install -hooks ./plugins/agentc/hooks security_reminder_hook.py
//	hookshim-install -hooks ./plugins/agentc/hooks -check
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"hookshim/internal/install"
	"hookshim/internal/shim"
)

func main() {
	hooksDir := flag.String("hooks", ".", "Path to the plugin's hooks directory")
	binary := flag.String("binary", "", "Path to the hookshim binary (default: hookshim from PATH)")
	remove := flag.Bool("remove", false, "Remove the named hook links instead of creating them")
	reconcile := flag.Bool("reconcile", false, "Make the linked hooks exactly the named ones")
	check := flag.Bool("check", false, "Report linked hooks with a missing run script or locked file")
	flag.Parse()

	logger := log.New(os.Stdout, "[hookshim-install] ", log.LstdFlags|log.Lmsgprefix)

	if *binary == "" {
		found, err := exec.LookPath(shim.BinaryName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hookshim-install: %s not found in PATH, pass -binary\n", shim.BinaryName)
			os.Exit(1)
		}
		*binary = found
	}

	in, err := install.New(install.Config{Binary: *binary, HooksDir: *hooksDir, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookshim-install: %v\n", err)
		os.Exit(1)
	}

	hooks := flag.Args()
	switch {
	case *check:
		os.Exit(runCheck(in, *hooksDir))
	case *remove:
		err = in.Unlink(hooks)
	case *reconcile:
		err = in.Reconcile(hooks)
	default:
		if len(hooks) == 0 {
			fmt.Fprintf(os.Stderr, "usage: hookshim-install [-hooks dir] [-binary path] [-remove|-reconcile|-check] hook...\n")
			os.Exit(2)
		}
		err = in.Link(hooks)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "hookshim-install: %v\n", err)
		os.Exit(1)
	}
}

// runCheck applies the hooks directory's shim configuration and prints
// one line per problem found.
func runCheck(in *install.Installer, hooksDir string) int {
	cfg, err := shim.LoadConfig(filepath.Join(hooksDir, shim.ConfigFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookshim-install: %v\n", err)
		return 1
	}

	problems, err := in.Check(cfg.RunScript, cfg.LockedFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookshim-install: %v\n", err)
		return 1
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		return 1
	}
	return 0
}
