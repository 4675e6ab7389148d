// Command rebootcheck reports whether Windows hosts have OS-level work
// queued behind a restart.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rebootcheck: %v\n", err)
		os.Exit(1)
	}
}
