package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidParameter indicates a missing or malformed query parameter.
var ErrInvalidParameter = errors.New("invalid parameter")

// LaunchParams are the launch parameters carried on a request's query string.
type LaunchParams struct {
	Speed  float64
	Height float64
	Angle  float64
}

// ParseLaunchParams reads speed and angle (required) and height (optional,
// default 0) from q. Range checks are left to core.NewProjectile.
func ParseLaunchParams(q url.Values) (LaunchParams, error) {
	var (
		p   LaunchParams
		err error
	)
	if p.Speed, err = floatParam(q, "speed", true); err != nil {
		return LaunchParams{}, err
	}
	if p.Height, err = floatParam(q, "height", false); err != nil {
		return LaunchParams{}, err
	}
	if p.Angle, err = floatParam(q, "angle", true); err != nil {
		return LaunchParams{}, err
	}
	return p, nil
}

// ParseChartRows reads the optional rows parameter; 0 selects the default.
func ParseChartRows(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("rows"))
	if raw == "" {
		return 0, nil
	}
	rows, err := strconv.Atoi(raw)
	if err != nil || rows < 0 {
		return 0, fmt.Errorf("%w: rows must be a non-negative integer, got %q", ErrInvalidParameter, raw)
	}
	return rows, nil
}

func floatParam(q url.Values, name string, required bool) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameter, name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidParameter, name, raw)
	}
	return v, nil
}
