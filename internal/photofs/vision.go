package photofs

import (
	"image"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

// LightClassifier assesses ambient light quality from a captured image.
// The shipped implementation is a placeholder heuristic; a real model can be
// substituted without touching the manager or store contracts.
type LightClassifier interface {
	Classify(img image.Image) models.LightQuality
}

// FaceDetector reports whether a face is present in a captured image.
type FaceDetector interface {
	Detect(img image.Image) bool
}

// LuminanceClassifier grades light quality from mean luminance, sampled on a
// coarse grid to keep classification cheap for large originals.
type LuminanceClassifier struct {
	// PoorBelow and ExcellentAbove bound the "good" band on the 0-255 scale.
	PoorBelow      float64
	ExcellentAbove float64
}

// NewLuminanceClassifier returns a classifier with the default bands.
func NewLuminanceClassifier() *LuminanceClassifier {
	return &LuminanceClassifier{PoorBelow: 60, ExcellentAbove: 150}
}

// Classify buckets the image's mean luminance into the three light grades.
func (c *LuminanceClassifier) Classify(img image.Image) models.LightQuality {
	if img == nil {
		return models.LightQualityPoor
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return models.LightQualityPoor
	}

	stepX := bounds.Dx() / 32
	if stepX < 1 {
		stepX = 1
	}
	stepY := bounds.Dy() / 32
	if stepY < 1 {
		stepY = 1
	}

	var sum, samples float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma on 16-bit channels, scaled back to 0-255.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			sum += luma
			samples++
		}
	}

	mean := sum / samples
	switch {
	case mean < c.PoorBelow:
		return models.LightQualityPoor
	case mean > c.ExcellentAbove:
		return models.LightQualityExcellent
	default:
		return models.LightQualityGood
	}
}

// StaticFaceDetector is the placeholder face-presence signal used until a
// real detector is integrated.
type StaticFaceDetector struct {
	Present bool
}

// Detect returns the configured static answer.
func (d *StaticFaceDetector) Detect(image.Image) bool {
	return d.Present
}
