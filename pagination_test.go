package val

import (
	"fmt"
	"testing"
)

func pagedRecords(count int) []map[string]interface{} {
	records := make([]map[string]interface{}, count)
	for i := 0; i < count; i++ {
		records[i] = map[string]interface{}{"id": fmt.Sprintf("%d", i)}
	}
	return records
}

func TestPagerExhaustsReportedTotal(t *testing.T) {
	//450 records at 200 per page: 200, 200, 50
	fetchCount := 0
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		fetchCount++

		if pageNum != fetchCount {
			t.Errorf("Expected sequential page numbers, got %d on fetch %d", pageNum, fetchCount)
		}

		remaining := 450 - (pageNum-1)*pageSize
		if remaining > pageSize {
			remaining = pageSize
		}

		return &Page{Records: pagedRecords(remaining), Total: 450, PageSize: pageSize}, nil
	}

	pager := NewPager(200, fetch)

	total := 0
	for pager.Next() {
		total += len(pager.Records())
	}

	if err := pager.Err(); err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if fetchCount != 3 {
		t.Errorf("Expected 3 fetches, got %d", fetchCount)
		return
	}

	if total != 450 {
		t.Errorf("Expected 450 records, got %d", total)
		return
	}

	//terminal: further calls keep returning false
	if pager.Next() {
		t.Errorf("Expected exhausted pager to stay done")
		return
	}
}

func TestPagerSinglePage(t *testing.T) {
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		return &Page{Records: pagedRecords(12), Total: 12, PageSize: pageSize}, nil
	}

	pager := NewPager(200, fetch)

	if !pager.Next() {
		t.Errorf("Expected the first page to be yielded")
		return
	}

	if len(pager.Records()) != 12 {
		t.Errorf("Expected 12 records, got %d", len(pager.Records()))
		return
	}

	if pager.Next() {
		t.Errorf("Expected no second page")
		return
	}
}

func TestPagerEmptyResult(t *testing.T) {
	//an empty first page still gets yielded once, then the pager is done
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		return &Page{Records: nil, Total: 0, PageSize: pageSize}, nil
	}

	pager := NewPager(200, fetch)

	if !pager.Next() {
		t.Errorf("Expected the empty first page to be yielded")
		return
	}

	if pager.Next() {
		t.Errorf("Expected pager done after empty page")
		return
	}

	if pager.Err() != nil {
		t.Errorf("Unexpected error: %v", pager.Err())
		return
	}
}

func TestPagerTransportFailureIsTerminal(t *testing.T) {
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		if pageNum >= 2 {
			return nil, fmt.Errorf("API error: boom")
		}
		return &Page{Records: pagedRecords(pageSize), Total: 600, PageSize: pageSize}, nil
	}

	pager := NewPager(200, fetch)

	if !pager.Next() {
		t.Errorf("Expected first page before the failure")
		return
	}

	//pages already yielded stand; the failure surfaces on the next advance
	if pager.Next() {
		t.Errorf("Expected failure on page 2")
		return
	}

	if pager.Err() == nil {
		t.Errorf("Expected terminal error")
		return
	}

	if pager.Next() {
		t.Errorf("Expected failed pager to stay failed")
		return
	}

	if pager.PageNum() != 2 {
		t.Errorf("Expected failure recorded on page 2, got %d", pager.PageNum())
		return
	}
}

func TestPagerRestartsFromPageOne(t *testing.T) {
	//no mid-run resume: a fresh pager starts over from page 1
	var firstPageNum int
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		if firstPageNum == 0 {
			firstPageNum = pageNum
		}
		return &Page{Records: pagedRecords(1), Total: 1, PageSize: pageSize}, nil
	}

	pager := NewPager(200, fetch)
	for pager.Next() {
	}

	firstPageNum = 0
	retry := NewPager(200, fetch)
	retry.Next()

	if firstPageNum != 1 {
		t.Errorf("Expected retry to start at page 1, got %d", firstPageNum)
		return
	}
}

func TestPagerTrustsReportedPageSize(t *testing.T) {
	//server clamps the page size to 100; the pager must keep going until the
	//reported total is actually exhausted
	fetchCount := 0
	fetch := func(pageNum int, pageSize int) (*Page, error) {
		fetchCount++
		return &Page{Records: pagedRecords(100), Total: 300, PageSize: 100}, nil
	}

	pager := NewPager(200, fetch)
	for pager.Next() {
	}

	if fetchCount != 3 {
		t.Errorf("Expected 3 fetches with clamped page size, got %d", fetchCount)
		return
	}
}
