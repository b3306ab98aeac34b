package main

import (
	"log"

	"github.com/zintix-labs/moneycart/sdk/perf"
	_ "go.uber.org/automaxprocs"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.RunPProf(executeSimulator, cfg.pprofmode, ""); err != nil {
		log.Fatal(err)
	}
}
