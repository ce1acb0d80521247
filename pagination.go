package val

//cursor-style page retrieval loop for APIs that report a total count

// Page is one transport response: the raw records plus the paging figures
// the server reported alongside them.
type Page struct {
	Records  []map[string]interface{}
	Total    int
	PageSize int
}

// PageFetchFunc performs one transport call for the given page number.
// Any error (non-success status or embedded error payload) is terminal for
// the whole run.
type PageFetchFunc func(pageNum int, pageSize int) (*Page, error)

// Pager drives a page-by-page retrieval loop to exhaustion or failure.
// It is restartable per run, not resumable mid-failure: to retry after an
// error, build a new Pager and start over from page 1.
//
//	pager := NewPager(200, fetch)
//	for pager.Next() {
//		records := pager.Records()
//		...
//	}
//	if err := pager.Err(); err != nil {
//		...
//	}
type Pager struct {
	fetch    PageFetchFunc
	pageSize int
	pageNum  int
	records  []map[string]interface{}
	done     bool
	err      error
}

func NewPager(pageSize int, fetch PageFetchFunc) *Pager {
	pager := new(Pager)
	pager.fetch = fetch
	pager.pageSize = pageSize

	return pager
}

// Next advances to the next page. It returns false once the reported total
// is exhausted or the transport fails; pages already yielded stand either
// way. Check Err to tell the two apart.
func (p *Pager) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	p.pageNum++

	page, err := p.fetch(p.pageNum, p.pageSize)
	if err != nil {
		p.err = err
		return false
	}

	p.records = page.Records

	// Trust the page size the server reports over the one we asked for when
	// deciding whether anything is left.
	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = p.pageSize
	}

	if page.Total <= p.pageNum*pageSize {
		p.done = true
	}

	return true
}

// Records returns the page yielded by the last successful Next.
func (p *Pager) Records() []map[string]interface{} {
	return p.records
}

// Err returns the terminal transport error, if any.
func (p *Pager) Err() error {
	return p.err
}

// PageNum returns the last page number fetched, starting at 1.
func (p *Pager) PageNum() int {
	return p.pageNum
}
