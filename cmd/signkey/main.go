package main

import (
	"flag"
	"fmt"
	"os"

	"hirely/internal/tools/signkey"
)

func main() {
	cfg, err := signkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}
	if err := signkey.Run(cfg, os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
}
