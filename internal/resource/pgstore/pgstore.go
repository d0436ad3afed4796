// Package pgstore provides a PostgreSQL implementation of resource.Store.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/sage/internal/keyword"
	"github.com/linnemanlabs/sage/internal/resource"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sage/internal/resource/pgstore")

//go:embed schema.sql
var schema string

// Store reads curated resources from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by the
// caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Search filters by category exact match and keyword array overlap, capped at
// limit. Rows come back in id order, which is only meaningful below the cap.
func (s *Store) Search(ctx context.Context, keywords []string, category keyword.Category, limit int) ([]resource.Resource, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Search", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT id, type, COALESCE(category, ''), title, COALESCE(content, ''),
		COALESCE(file_url, ''), keywords FROM internal_resources`
	var args []any
	where := ""

	if category != "" {
		args = append(args, string(category))
		where = fmt.Sprintf(" WHERE category = $%d", len(args))
	}
	if len(keywords) > 0 {
		args = append(args, keywords)
		clause := fmt.Sprintf("keywords && $%d", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}

	args = append(args, limit)
	query += where + fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var out []resource.Resource
	for rows.Next() {
		var r resource.Resource
		var cat string
		if err := rows.Scan(&r.ID, &r.Type, &cat, &r.Title, &r.Content, &r.FileURL, &r.Keywords); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r.Category = keyword.Category(cat)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate resources: %w", err)
	}

	span.SetAttributes(attribute.Int("sage.resources.count", len(out)))
	return out, nil
}

// Insert adds a resource and returns it with its assigned ID. Used by
// seeding and admin tooling, not by the pipeline.
func (s *Store) Insert(ctx context.Context, r resource.Resource) (resource.Resource, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Insert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO internal_resources (type, category, title, content, keywords, file_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		r.Type, nullable(string(r.Category)), r.Title, nullable(r.Content), r.Keywords, nullable(r.FileURL),
	).Scan(&r.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resource.Resource{}, fmt.Errorf("insert resource: %w", err)
	}
	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
