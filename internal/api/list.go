package api

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"sort"
	"strconv"
)

// ListOptions are the filter/sort/pagination parameters accepted by every
// list endpoint.
type ListOptions struct {
	Page    int
	PerPage int
	Sort    string // e.g. "-created_at"
	Search  string
	Filters map[string]string // e.g. status=validated, channel=email
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	for k, v := range o.Filters {
		q.Set(k, v)
	}
	return q
}

// Hash returns a short stable digest of the options, used as the
// filters-hash segment of list cache keys. Identical options always
// produce the identical hash.
func (o ListOptions) Hash() string {
	keys := make([]string, 0, len(o.Filters))
	for k := range o.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	fmt.Fprintf(h, "p=%d|pp=%d|s=%s|q=%s", o.Page, o.PerPage, o.Sort, o.Search)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%s", k, o.Filters[k])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
