// Command meshtool inspects, edits and generates triangle meshes and point
// clouds stored as OBJ files.
//
// Usage:
//
//	meshtool info scan.obj
//	meshtool decimate scan.obj --ratio 0.25 -o small.obj
//	meshtool create sphere --size 2 -o sphere.obj
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
