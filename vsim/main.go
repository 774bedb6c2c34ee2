// Command vsim runs the inverter chain testbench on the simulation kernel.
package main

import (
	"github.com/sarchlab/vsim/vsim/cmd"
)

func main() {
	cmd.Execute()
}
