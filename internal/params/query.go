package params

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/DMarby/filterlab/internal/transform"
)

// Query parameter names
const (
	QueryChannel        = "channel"
	QueryGaussianKsize  = "gaussian_ksize"
	QuerySobelKsize     = "sobel_ksize"
	QuerySobelDx        = "sobel_dx"
	QuerySobelDy        = "sobel_dy"
	QuerySobelDir       = "sobel_dir"
	QueryLaplacianKsize = "laplacian_ksize"
	QueryCannyLower     = "canny_lower"
	QueryCannyUpper     = "canny_upper"
	QueryHoughMode      = "hough_mode"
	QueryHoughThreshold = "hough_threshold"
	QueryHoughMinLength = "hough_min_len"
	QueryHoughMaxGap    = "hough_max_gap"
)

// FromQuery overrides base with the filter parameters present in the query, and validates the result
func FromQuery(base Params, query url.Values) (Params, error) {
	p := base

	ints := []struct {
		name string
		dst  *int
	}{
		{QueryChannel, &p.Channel},
		{QueryGaussianKsize, &p.GaussianKsize},
		{QuerySobelKsize, &p.SobelKsize},
		{QuerySobelDx, &p.SobelDx},
		{QuerySobelDy, &p.SobelDy},
		{QueryLaplacianKsize, &p.LaplacianKsize},
		{QueryHoughThreshold, &p.HoughThreshold},
		{QueryHoughMinLength, &p.HoughMinLength},
		{QueryHoughMaxGap, &p.HoughMaxGap},
	}

	for _, param := range ints {
		if !query.Has(param.name) {
			continue
		}

		val, err := strconv.Atoi(query.Get(param.name))
		if err != nil {
			return base, fmt.Errorf("%w: %s must be an integer", transform.ErrInvalidParameter, param.name)
		}
		*param.dst = val
	}

	// The combined direction takes precedence over the individual orders
	if query.Has(QuerySobelDir) {
		dir, err := strconv.Atoi(query.Get(QuerySobelDir))
		if err != nil {
			return base, fmt.Errorf("%w: %s must be an integer", transform.ErrInvalidParameter, QuerySobelDir)
		}

		if err := p.SobelDirection(dir); err != nil {
			return base, err
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{QueryCannyLower, &p.CannyLower},
		{QueryCannyUpper, &p.CannyUpper},
	}

	for _, param := range floats {
		if !query.Has(param.name) {
			continue
		}

		val, err := strconv.ParseFloat(query.Get(param.name), 64)
		if err != nil {
			return base, fmt.Errorf("%w: %s must be a number", transform.ErrInvalidParameter, param.name)
		}
		*param.dst = val
	}

	if query.Has(QueryHoughMode) {
		mode, err := ParseHoughMode(query.Get(QueryHoughMode))
		if err != nil {
			return base, err
		}
		p.HoughMode = mode
	}

	if err := p.Validate(); err != nil {
		return base, err
	}

	return p, nil
}

// Query encodes the parameters that differ from base as query parameters
func (p Params) Query(base Params) url.Values {
	v := url.Values{}

	setInt := func(name string, val, baseVal int) {
		if val != baseVal {
			v.Set(name, strconv.Itoa(val))
		}
	}

	setInt(QueryChannel, p.Channel, base.Channel)
	setInt(QueryGaussianKsize, p.GaussianKsize, base.GaussianKsize)
	setInt(QuerySobelKsize, p.SobelKsize, base.SobelKsize)
	setInt(QuerySobelDx, p.SobelDx, base.SobelDx)
	setInt(QuerySobelDy, p.SobelDy, base.SobelDy)
	setInt(QueryLaplacianKsize, p.LaplacianKsize, base.LaplacianKsize)
	setInt(QueryHoughThreshold, p.HoughThreshold, base.HoughThreshold)
	setInt(QueryHoughMinLength, p.HoughMinLength, base.HoughMinLength)
	setInt(QueryHoughMaxGap, p.HoughMaxGap, base.HoughMaxGap)

	if p.CannyLower != base.CannyLower {
		v.Set(QueryCannyLower, strconv.FormatFloat(p.CannyLower, 'g', -1, 64))
	}

	if p.CannyUpper != base.CannyUpper {
		v.Set(QueryCannyUpper, strconv.FormatFloat(p.CannyUpper, 'g', -1, 64))
	}

	if p.HoughMode != base.HoughMode {
		v.Set(QueryHoughMode, p.HoughMode.String())
	}

	return v
}

// BuildQuery builds a query parameter string for the given values, sorted by key
// It differs from the stdlib url.Values.Encode in that it encodes query parameters with an empty value as "?key" instead of "?key="
func BuildQuery(v url.Values) string {
	var buf strings.Builder

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := v.Get(key)

		if value != "" {
			addQueryParam(&buf, url.QueryEscape(key)+"="+url.QueryEscape(value))
		} else {
			addQueryParam(&buf, url.QueryEscape(key))
		}
	}

	return buf.String()
}

// addQueryParam adds a query parameter to a byte buffer
func addQueryParam(buf *strings.Builder, param string) {
	if buf.Len() > 0 {
		buf.WriteByte('&')
	} else {
		buf.WriteByte('?')
	}

	buf.WriteString(param)
}
