package domain

import "image"

// Scan is a decoded upload: a normalized in-memory raster plus the modality
// tag determined during decoding.
type Scan struct {
	Image    image.Image
	Modality string
}
