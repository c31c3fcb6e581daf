// Package main is the entry point for the fg CLI client.
package main

import (
	"github.com/alsk1992/Flip-God-sub007/cmd/fg/cmd"
)

func main() {
	cmd.Execute()
}
