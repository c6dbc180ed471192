// internal/workers/advisory/analyze-deals/validation.go
package analyzedeals

import (
	"errors"
	"regexp"
	"strconv"
)

// Precondition failures. The messages are surfaced verbatim as the BPMN
// error message, so they stay user-readable.
var (
	ErrTooFewDeals    = errors.New("At least 2 projects are required for comparison")
	ErrMissingProfile = errors.New("Investor profile is required")
)

func validateInput(input *Input) error {
	if len(input.Projects) < 2 {
		return ErrTooFewDeals
	}
	if input.InvestorProfile == nil {
		return ErrMissingProfile
	}
	return nil
}

var (
	ratingPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	yearPattern   = regexp.MustCompile(`(?:19|20)[0-9]{2}`)
)

// effectiveIRR prefers the financial model's base case IRR; a missing or
// zero value falls back to the headline return figure.
func effectiveIRR(d *Deal) float64 {
	if d.Financials != nil && d.Financials.BaseCaseIRR != 0 {
		return d.Financials.BaseCaseIRR
	}
	return d.ReturnPerYear
}

func effectiveMOIC(d *Deal) float64 {
	if d.Financials != nil {
		return d.Financials.MOIC
	}
	return 0
}

// techRating recovers the numeric rating from free text like "7.8/10".
func techRating(d *Deal) float64 {
	m := ratingPattern.FindString(d.TechnicalRating)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// buildYear recovers the build year from free text like "April 2014".
func buildYear(d *Deal) int {
	m := yearPattern.FindString(d.Built)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}
