package pipeline

import (
	"fmt"
	"strings"
)

// Tag identifies one variant in the filter dependency graph
type Tag int

// Variant tags, in the order they are presented
const (
	Original Tag = iota
	Gray
	Red
	Green
	Blue
	GaussianBlur
	Sobel
	SobelX
	SobelY
	Laplacian
	Canny
	Hough
	Channel
)

var tagNames = []string{
	Original:     "original",
	Gray:         "gray",
	Red:          "red",
	Green:        "green",
	Blue:         "blue",
	GaussianBlur: "gaussian",
	Sobel:        "sobel",
	SobelX:       "sobel_x",
	SobelY:       "sobel_y",
	Laplacian:    "laplacian",
	Canny:        "canny",
	Hough:        "hough",
	Channel:      "channel",
}

// Tags returns every known tag in presentation order
func Tags() []Tag {
	tags := make([]Tag, len(tagNames))
	for i := range tagNames {
		tags[i] = Tag(i)
	}
	return tags
}

// Valid reports whether t is a known tag
func (t Tag) Valid() bool {
	return t >= 0 && int(t) < len(tagNames)
}

func (t Tag) String() string {
	if t.Valid() {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Label returns the metric label of t, unknown tags are labelled as the original they resolve to
func (t Tag) Label() string {
	if !t.Valid() {
		return Original.String()
	}
	return t.String()
}

// ParseTag looks up a tag by name, case insensitively
// Unknown names return Original and false, resolving them yields the source image
func ParseTag(name string) (Tag, bool) {
	for i, tagName := range tagNames {
		if strings.EqualFold(name, tagName) {
			return Tag(i), true
		}
	}
	return Original, false
}

// MarshalText implements encoding.TextMarshaler
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
