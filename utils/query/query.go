// Package query parses the feed sort/order/limit directives.
package query

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// Directives carries the parsed sort and limit options for a feed query.
// Sort is nil when the sort parameter is missing or unrecognized, which
// leaves the ordering natural.
type Directives struct {
	Sort  bson.D
	Limit int64
}

// Parse reads sort, order and limit from the request query string.
// sort=date orders by created_at, sort=like by like_count; order defaults
// to descending. Non-positive or malformed limits are ignored.
func Parse(r *http.Request) Directives {
	var d Directives

	direction := -1
	if r.URL.Query().Get("order") == "asc" {
		direction = 1
	}

	switch r.URL.Query().Get("sort") {
	case "date":
		d.Sort = bson.D{{Key: "created_at", Value: direction}}
	case "like":
		d.Sort = bson.D{{Key: "like_count", Value: direction}}
	}

	if limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && limit > 0 {
		d.Limit = limit
	}
	return d
}
