// Package graphql exposes the application services over a single GraphQL
// endpoint. The schema is embedded and bound to explicit resolver types.
package graphql

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

//go:embed schema.graphql
var schemaSDL string

// DefaultMaxDepth bounds query nesting when the caller passes zero.
const DefaultMaxDepth = 10

// NewSchema parses the embedded schema against r.
func NewSchema(r *Resolver, maxDepth int) (*graphql.Schema, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	schema, err := graphql.ParseSchema(schemaSDL, r, graphql.MaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// NewHandler returns the HTTP handler serving POST /graphql. The caller is
// read from the request context, so it must run behind OptionalAuth.
func NewHandler(r *Resolver, maxDepth int) (http.Handler, error) {
	schema, err := NewSchema(r, maxDepth)
	if err != nil {
		return nil, err
	}
	return &relay.Handler{Schema: schema}, nil
}
