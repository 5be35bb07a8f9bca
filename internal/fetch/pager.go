package fetch

import (
	"net/url"
	"strconv"
)

// OffsetPager walks an offset/limit paginated endpoint the way Congress.gov
// paginates: the caller fetches a page, reports how many records came back,
// and the pager decides whether another page exists.
type OffsetPager struct {
	offset   int
	pageSize int
	done     bool
}

// NewOffsetPager returns a pager starting at offset zero.
func NewOffsetPager(pageSize int) *OffsetPager {
	return &OffsetPager{pageSize: pageSize}
}

// Next returns the query parameters for the next page, or false when the
// previous page was short and the listing is exhausted.
func (p *OffsetPager) Next() (url.Values, bool) {
	if p.done {
		return nil, false
	}
	v := url.Values{}
	v.Set("offset", strconv.Itoa(p.offset))
	v.Set("limit", strconv.Itoa(p.pageSize))
	return v, true
}

// Advance records how many results the last page returned. A short page
// ends the walk.
func (p *OffsetPager) Advance(count int) {
	p.offset += count
	if count < p.pageSize {
		p.done = true
	}
}

// PagePager walks a page-numbered endpoint the way the FEC API paginates.
// The API reports total pages in its pagination envelope; the caller feeds
// that back after the first fetch.
type PagePager struct {
	page       int
	perPage    int
	totalPages int // -1 until the first response reports it
}

// NewPagePager returns a pager starting at page one.
func NewPagePager(perPage int) *PagePager {
	return &PagePager{page: 1, perPage: perPage, totalPages: -1}
}

// Next returns the query parameters for the next page, or false when all
// reported pages have been fetched.
func (p *PagePager) Next() (url.Values, bool) {
	if p.totalPages >= 0 && p.page > p.totalPages {
		return nil, false
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.page))
	v.Set("per_page", strconv.Itoa(p.perPage))
	return v, true
}

// Advance moves to the next page, recording the total page count from the
// response envelope.
func (p *PagePager) Advance(totalPages int) {
	p.totalPages = totalPages
	p.page++
}
