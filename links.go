package stowgate

import (
	"net/http"
	"sort"
)

// Method is the HTTP method a link expects.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// Relation names advertised by the gateway.
const (
	RelAuthorize    = "authorize"
	RelGetUploadURL = "getUploadUrl"
	RelUploadFile   = "uploadFile"
)

// LinkSpec is a link without its relation name.
type LinkSpec struct {
	Href   string `json:"href"`
	Method Method `json:"method"`
}

// Link is a self-describing affordance: Rel always equals the key it is stored under.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method Method `json:"method"`
}

// LinkSet maps relation name to Link.
type LinkSet map[string]Link

// HasLinks is embedded by every response body that advertises next actions.
type HasLinks struct {
	Links LinkSet `json:"_links"`
}

// BuildLinks produces a LinkSet from relation name -> {href, method}.
// Every input key appears exactly once in the output with Rel set to the key.
// A nil or empty input yields an empty, non-nil set.
func BuildLinks(partial map[string]LinkSpec) LinkSet {
	links := make(LinkSet, len(partial))
	for rel, spec := range partial {
		links[rel] = Link{
			Rel:    rel,
			Href:   spec.Href,
			Method: spec.Method,
		}
	}
	return links
}

// Get returns the link for rel.
func (s LinkSet) Get(rel string) (Link, bool) {
	l, ok := s[rel]
	return l, ok
}

// List flattens the set to a slice ordered by relation name.
func (s LinkSet) List() []Link {
	out := make([]Link, 0, len(s))
	for _, l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out
}
