package main

import (
	"fmt"
	"os"

	"github.com/galaplate/foundry/console"
)

func main() {
	if err := console.NewKernel().Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
