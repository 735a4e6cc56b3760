package query

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantSort  bson.D
		wantLimit int64
	}{
		{"no directives", "/timeline", nil, 0},
		{"sort by date defaults desc", "/timeline?sort=date", bson.D{{Key: "created_at", Value: -1}}, 0},
		{"sort by date asc", "/timeline?sort=date&order=asc", bson.D{{Key: "created_at", Value: 1}}, 0},
		{"sort by like desc", "/timeline?sort=like&order=desc", bson.D{{Key: "like_count", Value: -1}}, 0},
		{"unrecognized sort ignored", "/timeline?sort=comments", nil, 0},
		{"limit", "/timeline?limit=10", nil, 10},
		{"negative limit ignored", "/timeline?limit=-3", nil, 0},
		{"malformed limit ignored", "/timeline?limit=ten", nil, 0},
		{"all directives", "/timeline?sort=like&order=asc&limit=5", bson.D{{Key: "like_count", Value: 1}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(httptest.NewRequest("GET", tt.url, nil))
			if d.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", d.Limit, tt.wantLimit)
			}
			if len(d.Sort) != len(tt.wantSort) {
				t.Fatalf("Sort = %v, want %v", d.Sort, tt.wantSort)
			}
			for i := range d.Sort {
				if d.Sort[i] != tt.wantSort[i] {
					t.Errorf("Sort[%d] = %v, want %v", i, d.Sort[i], tt.wantSort[i])
				}
			}
		})
	}
}
