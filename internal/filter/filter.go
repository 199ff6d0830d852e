// Package filter holds the resolution heuristic that decides whether an
// image looks good on the configured display. The thresholds were tuned by
// hand against real listings; keep their values, order and directionality
// intact.
package filter

import (
	"log/slog"

	"wallfetch/internal/domain"
)

// AcceptableDifference is the slack, in pixels, used across the
// resolution-comparison rules.
const AcceptableDifference = 90

// Filter evaluates candidate resolutions against a target display
// resolution. The target is explicit state, set once from configuration.
type Filter struct {
	target    domain.Resolution
	tolerance int
	logger    *slog.Logger
}

func New(target domain.Resolution, logger *slog.Logger) *Filter {
	return &Filter{
		target:    target,
		tolerance: AcceptableDifference,
		logger:    logger.With("component", "filter"),
	}
}

// Target returns the configured display resolution.
func (f *Filter) Target() domain.Resolution {
	return f.target
}

// Keep reports whether an image of the given resolution is worth
// downloading. First matching rule wins.
func (f *Filter) Keep(title string, res domain.Resolution) bool {
	w, h := res.Width, res.Height
	tw, th := f.target.Width, f.target.Height
	tol := f.tolerance

	if tw-w > 4*tol {
		f.logger.Debug("rejecting: width below target", "title", title, "width", w, "target", tw)
		return false
	}
	if th-h > 4*tol {
		f.logger.Debug("rejecting: height below target", "title", title, "height", h, "target", th)
		return false
	}
	if w >= tw {
		f.logger.Debug("keeping: width at or above target", "title", title, "width", w, "target", tw)
		return true
	}

	if h > w {
		// Portrait: flip the coordinates, target included, for the
		// remaining checks.
		w, h = h, w
		tw, th = th, tw
		f.logger.Debug("portrait image", "title", title, "width", w, "height", h)
	}

	if tw*th-w*h < tol*tol {
		f.logger.Debug("rejecting: area too close to target",
			"title", title, "area", w*h, "target_area", tw*th)
		return false
	}

	if float64(tw)/float64(th)-float64(w)/float64(h) > float64(tol)/200.0 {
		f.logger.Debug("rejecting: aspect ratio off target",
			"title", title,
			"ratio", float64(w)/float64(h),
			"target_ratio", float64(tw)/float64(th))
		return false
	}

	f.logger.Debug("keeping: seems fine", "title", title, "width", w, "height", h)
	return true
}
