package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
