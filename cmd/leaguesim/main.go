// Command leaguesim runs and inspects franchise league dynasties.
package main

import (
	"fmt"
	"os"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
