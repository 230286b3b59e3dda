package pagination

import "testing"

func TestPageRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var p PageRequest
		p.Defaults()
		if p.Page != 1 || p.PageSize != 20 || p.Offset() != 0 {
			t.Errorf("unexpected defaults: %+v", p)
		}
	})

	t.Run("clamp", func(t *testing.T) {
		p := PageRequest{Page: 3, PageSize: 500}
		p.Clamp()
		if p.PageSize != MaxPageSize || p.Offset() != 200 {
			t.Errorf("unexpected clamp: %+v", p)
		}
	})
}

func TestNewPageResponse(t *testing.T) {
	res := NewPageResponse[int](nil, 1, 20, 41)
	if res.TotalPages != 3 || res.Data == nil {
		t.Errorf("unexpected response: %+v", res)
	}
	empty := NewPageResponse([]int{}, 1, 0, 0)
	if empty.TotalPages != 0 {
		t.Errorf("expected zero pages, got %d", empty.TotalPages)
	}
}
