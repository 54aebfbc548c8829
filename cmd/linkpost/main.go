package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/linkpost/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "linkpost: %v\n", err)
		os.Exit(1)
	}
}
