// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"log"
)

func main() {
	root := newRootCmd()

	err := root.Execute()
	if err != nil {
		log.Fatalf("%v: %v", root.Name(), err)
	}
}
