// hdlscan - build configuration analyzer for HDL project trees.
//
// hdlscan inspects an arbitrary hardware-description source tree,
// determines its governing dialect, assembles the module dependency
// graph, infers the synthesis top module, and emits a normalized build
// configuration for downstream synthesis and test stages.
package main

import (
	"fmt"
	"os"

	"github.com/hdlci/hdlscan/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
