package domain

import "math"

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) valid() bool {
	return positive(s.Width) && positive(s.Height)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// OverlayBox is the rectangle an image occupies inside its container.
type OverlayBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// FitContain scales natural into container without cropping or stretching and
// centres it. ok is false when either size is not strictly positive and finite,
// which covers an image that has not loaded yet.
func FitContain(container, natural Size) (box OverlayBox, ok bool) {
	if !container.valid() || !natural.valid() {
		return OverlayBox{}, false
	}
	imageRatio := natural.Width / natural.Height
	containerRatio := container.Width / container.Height

	if imageRatio > containerRatio {
		box.Width = container.Width
		box.Height = container.Width / imageRatio
	} else {
		box.Height = container.Height
		box.Width = container.Height * imageRatio
	}
	box.Left = (container.Width - box.Width) / 2
	box.Top = (container.Height - box.Height) / 2
	return box, true
}
