package publica

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageFolder is the object store folder publication images are uploaded to.
const ImageFolder = "publications"

// Publication represents a user publication.
//
// Likes never goes below zero; Comments is append-only and insertion order is
// display order. ImageURL and FilterApplied are set at creation and immutable
// afterwards (an empty string means absent). CreatedAt is the sort key for
// account listings and the feed, newest first.
type Publication struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url,omitempty"`
	FilterApplied string    `json:"filter_applied,omitempty"`
	Likes         int       `json:"likes"`
	Comments      []string  `json:"comments"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a deep copy of the publication. Repositories hand out clones
// so callers can never mutate stored state in place.
func (p *Publication) Clone() *Publication {
	cp := *p
	if p.Comments != nil {
		cp.Comments = make([]string, len(p.Comments))
		copy(cp.Comments, p.Comments)
	}
	return &cp
}

// Filter is the two-case choice between "no filter requested" and a named
// filter. The zero value is the no-filter case.
type Filter struct {
	name string
}

// NoFilter returns the no-filter case.
func NoFilter() Filter {
	return Filter{}
}

// NamedFilter returns a filter request for the given name. An empty name is
// the no-filter case.
func NamedFilter(name string) Filter {
	return Filter{name: name}
}

// ParseFilter interprets a wire-level filter value. The empty string and the
// sentinel "none" (case-insensitive) mean no filter.
func ParseFilter(s string) Filter {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return NoFilter()
	}
	return Filter{name: s}
}

// Requested reports whether a named filter was requested.
func (f Filter) Requested() bool {
	return f.name != ""
}

// Name returns the requested filter name, or the empty string for the
// no-filter case.
func (f Filter) Name() string {
	return f.name
}

func (f Filter) String() string {
	if !f.Requested() {
		return "none"
	}
	return f.name
}
