package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hashdragonctl: %v\n", err)
		os.Exit(1)
	}
}
