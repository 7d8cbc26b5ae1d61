package models

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// LocationDetails carries the names a listing was published under
type LocationDetails struct {
	Project       string `json:"project,omitempty"`
	MasterProject string `json:"master_project,omitempty"`
}

// ScrapedListing is an already-parsed listing awaiting resolution.
// It is never mutated by the engine.
type ScrapedListing struct {
	URL             string          `json:"url,omitempty" validate:"omitempty,url"`
	LocationDetails LocationDetails `json:"location_details"`
	Area            string          `json:"area,omitempty"` // optional alias area hint, e.g. "JVC"
	PropertyType    string          `json:"property_type,omitempty"`
	PermitNumber    string          `json:"permit_number,omitempty" validate:"omitempty,max=64"`
	Bedrooms        string          `json:"bedrooms,omitempty"`
	Bathrooms       string          `json:"bathrooms,omitempty"`
	Size            string          `json:"size,omitempty"`                                   // display text, e.g. "1,200 sqft"
	SizeNumeric     *float64        `json:"size_numeric,omitempty" validate:"omitempty,gte=0"` // square feet
	User            string          `json:"user,omitempty"`
}

// Project returns the trimmed project name
func (l ScrapedListing) Project() string {
	return strings.TrimSpace(l.LocationDetails.Project)
}

// MasterProject returns the trimmed master project name
func (l ScrapedListing) MasterProject() string {
	return strings.TrimSpace(l.LocationDetails.MasterProject)
}

// HasPermit reports whether a permit fragment was supplied
func (l ScrapedListing) HasPermit() bool {
	return strings.TrimSpace(l.PermitNumber) != ""
}

// EffectiveSizeSqft returns the listing size in square feet.
// SizeNumeric wins when positive, otherwise the first number in the display text is used.
func (l ScrapedListing) EffectiveSizeSqft() (float64, bool) {
	if l.SizeNumeric != nil && *l.SizeNumeric > 0 {
		return *l.SizeNumeric, true
	}
	if v, ok := normalizers.ExtractSizeNumeric(l.Size); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// EffectiveSizeSqm returns the listing size converted to square metres
func (l ScrapedListing) EffectiveSizeSqm() (float64, bool) {
	sqft, ok := l.EffectiveSizeSqft()
	if !ok {
		return 0, false
	}
	return normalizers.SqftToSqm(sqft), true
}
