package engine

import "github.com/inamate/pagemark/internal/document"

// Options tune the interactive behaviour of an Engine. Lengths named in
// view pixels are divided by the current scale before use.
type Options struct {
	MinScale      float64
	MaxScale      float64
	DefaultScale  float64
	ZoomStep      float64
	DragThreshold float64 // view px
	HandleRadius  float64 // view px
	HitSlop       float64 // view px, for thin strokes
	Limits        document.Limits
	HistoryLimit  int
}

func DefaultOptions() Options {
	return Options{
		MinScale:      0.5,
		MaxScale:      3.0,
		DefaultScale:  1.0,
		ZoomStep:      0.2,
		DragThreshold: 3,
		HandleRadius:  6,
		HitSlop:       5,
		Limits:        document.DefaultLimits(),
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = max(d.MaxScale, o.MinScale)
	}
	if o.DefaultScale <= 0 {
		o.DefaultScale = d.DefaultScale
	}
	o.DefaultScale = min(max(o.DefaultScale, o.MinScale), o.MaxScale)
	if o.ZoomStep <= 0 {
		o.ZoomStep = d.ZoomStep
	}
	if o.DragThreshold < 0 {
		o.DragThreshold = d.DragThreshold
	}
	if o.HandleRadius <= 0 {
		o.HandleRadius = d.HandleRadius
	}
	if o.HitSlop < 0 {
		o.HitSlop = d.HitSlop
	}
	if o.Limits.MinBoxSize <= 0 {
		o.Limits.MinBoxSize = d.Limits.MinBoxSize
	}
	if o.Limits.MinRadius <= 0 {
		o.Limits.MinRadius = d.Limits.MinRadius
	}
	return o
}
