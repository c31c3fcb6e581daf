// Package main is the entry point for the flip-god repricing server.
package main

import (
	"os"

	"github.com/alsk1992/Flip-God-sub007/cmd/flip-god/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
