package sources

import (
	"errors"
	"testing"

	"ratepulse/internal/config"
	"ratepulse/internal/types"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		page int
		want string
	}{
		{
			name: "page one is always the base url",
			base: "https://www.herald.co.zw/category/business/",
			page: 1,
			want: "https://www.herald.co.zw/category/business/",
		},
		{
			name: "herald uses path pagination",
			base: "https://www.herald.co.zw/category/business/",
			page: 2,
			want: "https://www.herald.co.zw/category/business/page/2/",
		},
		{
			name: "chronicle shares the herald family",
			base: "https://www.chronicle.co.zw/category/business/",
			page: 3,
			want: "https://www.chronicle.co.zw/category/business/page/3/",
		},
		{
			name: "newsday uses query pagination",
			base: "https://www.newsday.co.zw/business/",
			page: 2,
			want: "https://www.newsday.co.zw/business/?page=2",
		},
		{
			name: "bulawayo24 paginates before the extension",
			base: "https://bulawayo24.com/index-id-business.html",
			page: 2,
			want: "https://bulawayo24.com/index-id-business-2.html",
		},
		{
			name: "unknown site gets the generic suffix",
			base: "https://example.co.zw/business/",
			page: 4,
			want: "https://example.co.zw/business/page/4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageURL(tt.base, tt.page); got != tt.want {
				t.Errorf("PageURL(%q, %d) = %q, want %q", tt.base, tt.page, got, tt.want)
			}
		})
	}
}

func testRegistry() *Registry {
	return NewRegistry([]config.SourceDescriptor{
		{Name: "The Herald", Kind: "news"},
		{Name: "NewsDay Zimbabwe", Kind: "news"},
	})
}

func TestRegistryFilter(t *testing.T) {
	r := testRegistry()

	all, err := r.Filter(nil)
	if err != nil {
		t.Fatalf("Filter(nil): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty filter returned %d sources, want 2", len(all))
	}

	one, err := r.Filter([]string{"The Herald"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(one) != 1 || one[0].Name != "The Herald" {
		t.Errorf("filter result = %+v", one)
	}

	_, err = r.Filter([]string{"No Such Source"})
	if !errors.Is(err, types.ErrNoSources) {
		t.Errorf("unmatched filter err = %v, want ErrNoSources", err)
	}
}

func TestRegistryGet(t *testing.T) {
	r := testRegistry()
	if _, ok := r.Get("The Herald"); !ok {
		t.Error("Get(The Herald) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) unexpectedly found")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}
