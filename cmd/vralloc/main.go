// Command vralloc runs the target-independent linear-scan register
// allocator (pkg/regalloc) over a small textual instruction stream and
// prints the result, the same single-purpose way the teacher's mze ran a
// Z80 binary end to end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minz/vralloc/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "vralloc",
	Short:   "Target-independent linear-scan register allocator",
	Version: version.GetVersion(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
