//go:build gocv

package main

import (
	"github.com/DMarby/filterlab/internal/transform"
	"github.com/DMarby/filterlab/internal/transform/opencv"
)

func transformLibrary() transform.Library {
	return opencv.Library{}
}
