// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Orientation classifies a page as wider-than-tall or not.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// PageInfo holds the media box dimensions of one PDF page.
type PageInfo struct {
	// Index is the 0-based page number.
	Index int `json:"index" yaml:"index"`

	// Width and Height are the media box dimensions in points.
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Orientation reports Landscape when the page is strictly wider than it is
// tall. Square pages are Portrait.
func (p PageInfo) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// Swapped returns the page geometry after a quarter turn.
func (p PageInfo) Swapped() PageInfo {
	return PageInfo{Index: p.Index, Width: p.Height, Height: p.Width}
}

// MarshalJSON adds the derived orientation to the encoded page.
func (p PageInfo) MarshalJSON() ([]byte, error) {
	type page PageInfo
	return json.Marshal(struct {
		page
		Orientation Orientation `json:"orientation"`
	}{page(p), p.Orientation()})
}

// FileInfo holds the pages of one PDF file.
type FileInfo struct {
	Path  string     `json:"file" yaml:"file"`
	Pages []PageInfo `json:"pages" yaml:"pages"`
}
