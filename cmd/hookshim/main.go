// Command hookshim delegates a plugin hook to its sibling run script.
// Install it (or symlink it) in a hooks directory under the hook's name;
// it runs ../run with <hook>.locked followed by its own arguments and
// exits with the run script's status.
package main

import (
	"os"

	"hookshim/internal/shim"
)

func main() {
	os.Exit(shim.Run())
}
