// Package main is the command-line front end to the preeclampsia risk
// pipeline: assess observations, print guidance and inspect model artifacts.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
