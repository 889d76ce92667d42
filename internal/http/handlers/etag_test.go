package handlers

import "testing"

func TestIfNoneMatchMatches(t *testing.T) {
	etag := etagFor([]byte(`{"id":1}`))

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{"W/" + etag, true},
		{`"other", ` + etag, true},
		{`"other"`, false},
	}

	for _, tt := range tests {
		if got := ifNoneMatchMatches(tt.header, etag); got != tt.want {
			t.Fatalf("ifNoneMatchMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestETagChangesWithBody(t *testing.T) {
	if etagFor([]byte(`{"title":"Launch"}`)) == etagFor([]byte(`{"title":"Launch Party"}`)) {
		t.Fatal("different bodies produced the same etag")
	}
}
