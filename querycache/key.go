package querycache

import (
	"fmt"
	"net/url"
)

// Tag names the entity a cached query reads. Mutations invalidate by tag.
type Tag string

// Key identifies one cached query: an entity tag plus every facet that affects the result.
// Keys are values; With returns a copy.
type Key struct {
	tag    Tag
	facets url.Values
}

// NewKey starts a key for the given entity tag.
func NewKey(tag Tag) Key {
	return Key{tag: tag, facets: url.Values{}}
}

// With returns a copy of k with the named facet set to value.
// A facet set twice keeps the last value.
func (k Key) With(name string, value any) Key {
	facets := make(url.Values, len(k.facets)+1)
	for n, v := range k.facets {
		facets[n] = v
	}
	facets.Set(name, fmt.Sprint(value))
	return Key{tag: k.tag, facets: facets}
}

// Tag returns the entity tag of the key.
func (k Key) Tag() Tag {
	return k.tag
}

// String renders the key deterministically: facets are sorted by name and escaped,
// so two keys built from the same facets in any order render identically.
func (k Key) String() string {
	if len(k.facets) == 0 {
		return string(k.tag)
	}
	return string(k.tag) + "?" + k.facets.Encode()
}
