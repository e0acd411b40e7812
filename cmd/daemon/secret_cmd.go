// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/trackgate/internal/daemon"
)

func runGenSecret(args []string) int {
	fs := flag.NewFlagSet("trackgate gen-secret", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var out string
	fs.StringVar(&out, "out", "", "file to write the secret to (mode 0600)")
	fs.StringVar(&out, "o", "", "file to write the secret to (shorthand)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if out == "" {
		fmt.Fprintln(os.Stderr, "Error: --out is required")
		return 2
	}

	if err := daemon.GenerateSecret(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d-byte secret to %s\n", daemon.SecretBytes, out)
	fmt.Fprintf(stdout, "point %s at it to use it\n", "TRACKGATE_SECRET_FILE")
	return 0
}
