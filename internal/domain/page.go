package domain

import (
	"fmt"
	"strings"
)

// DefaultPageSize is the number of records requested per search page.
const DefaultPageSize = 100

// Operator joins multiple search terms into one catalog expression.
type Operator string

// Supported join operators.
const (
	OperatorAND Operator = "AND"
	OperatorOR  Operator = "OR"
)

// ParseOperator accepts AND/OR in any case. Empty means AND.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return OperatorAND, nil
	case "OR":
		return OperatorOR, nil
	default:
		return "", fmt.Errorf("%w: operator must be AND or OR, got %q", ErrInvalidQuerySpec, s)
	}
}

// PageRequest is one request of a paginated catalog search.
type PageRequest struct {
	OrganizationID string
	Filter         string
	Offset         int
	Rows           int
}

// Page is one page of search results plus the total match count.
type Page struct {
	Count   int
	Records []CatalogRecord
}
