//go:build !gocv

package main

import "github.com/DMarby/filterlab/internal/transform"

func transformLibrary() transform.Library {
	return transform.Native{}
}
