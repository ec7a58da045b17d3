// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package people

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
)

const schema = `
CREATE TABLE IF NOT EXISTS people (
	id          BIGSERIAL PRIMARY KEY,
	given_name  TEXT NOT NULL,
	family_name TEXT NOT NULL,
	email       TEXT NOT NULL,
	job_title   TEXT NOT NULL DEFAULT '',
	avatar_key  TEXT NOT NULL DEFAULT '',
	joined      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS blog_postings (
	id        UUID PRIMARY KEY,
	headline  TEXT NOT NULL,
	body      TEXT NOT NULL,
	author    BIGINT NOT NULL REFERENCES people (id) ON DELETE CASCADE,
	created   TIMESTAMPTZ NOT NULL DEFAULT now(),
	published TIMESTAMPTZ
);
`

const (
	personColumns      = "id, given_name, family_name, email, job_title, avatar_key, joined"
	blogPostingColumns = "id, headline, body, author, created, published"

	// foreignKeyViolation is the SQLSTATE of a missing referenced row.
	foreignKeyViolation = "23503"
)

// Postgres is a [Store] backed by a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at url and creates the tables if
// they do not exist yet.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Ping implements the health.Pinger interface.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every connection of the pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func scanPerson(row pgx.CollectableRow) (Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.GivenName, &p.FamilyName, &p.Email, &p.JobTitle, &p.AvatarKey, &p.Joined)
	return p, err
}

func scanBlogPosting(row pgx.CollectableRow) (BlogPosting, error) {
	var b BlogPosting
	err := row.Scan(&b.ID, &b.Headline, &b.Body, &b.Author, &b.Created, &b.Published)
	return b, err
}

func (s *Postgres) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

func queryPage[T any](ctx context.Context, s *Postgres, scan func(pgx.CollectableRow) (T, error), countSQL, sql string, args ...any) (model.Items[T], error) {
	total, err := s.count(ctx, countSQL, args...)
	if err != nil {
		return model.Items[T]{}, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return model.Items[T]{}, err
	}
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return model.Items[T]{}, err
	}
	return model.Items[T]{Items: items, TotalCount: total}, nil
}

func (s *Postgres) People(ctx context.Context, p model.Pagination) (model.Items[Person], error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.People")
	defer span.End()

	sql := fmt.Sprintf(
		"SELECT %s FROM people ORDER BY id LIMIT %d OFFSET %d",
		personColumns, p.Limit(), p.Offset(),
	)
	items, err := queryPage(ctx, s, scanPerson, "SELECT count(*) FROM people", sql)
	if err != nil {
		span.RecordError(err)
	}
	return items, err
}

func (s *Postgres) Person(ctx context.Context, id int64) (Person, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.Person")
	defer span.End()

	rows, err := s.pool.Query(ctx, "SELECT "+personColumns+" FROM people WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		return Person{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPerson)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, personNotFound(id)
	}
	return p, err
}

func (s *Postgres) AddPerson(ctx context.Context, f PersonForm) (Person, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.AddPerson")
	defer span.End()

	rows, err := s.pool.Query(
		ctx,
		`INSERT INTO people (given_name, family_name, email, job_title)
		VALUES ($1, $2, $3, $4)
		RETURNING `+personColumns,
		f.GivenName, f.FamilyName, f.Email, f.JobTitle,
	)
	if err != nil {
		span.RecordError(err)
		return Person{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPerson)
	if err != nil {
		return Person{}, err
	}

	p.AvatarKey = fmt.Sprintf("%s/%d", PeopleResource, p.ID)
	_, err = s.pool.Exec(ctx, "UPDATE people SET avatar_key = $1 WHERE id = $2", p.AvatarKey, p.ID)
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

func (s *Postgres) ReplacePerson(ctx context.Context, id int64, f PersonForm) (Person, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.ReplacePerson")
	defer span.End()

	rows, err := s.pool.Query(
		ctx,
		`UPDATE people SET given_name = $2, family_name = $3, email = $4, job_title = $5
		WHERE id = $1
		RETURNING `+personColumns,
		id, f.GivenName, f.FamilyName, f.Email, f.JobTitle,
	)
	if err != nil {
		span.RecordError(err)
		return Person{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPerson)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, personNotFound(id)
	}
	return p, err
}

func (s *Postgres) RemovePerson(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.RemovePerson")
	defer span.End()

	tag, err := s.pool.Exec(ctx, "DELETE FROM people WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return personNotFound(id)
	}
	return nil
}

func (s *Postgres) BlogPostings(ctx context.Context, p model.Pagination) (model.Items[BlogPosting], error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.BlogPostings")
	defer span.End()

	sql := fmt.Sprintf(
		"SELECT %s FROM blog_postings ORDER BY created, id LIMIT %d OFFSET %d",
		blogPostingColumns, p.Limit(), p.Offset(),
	)
	items, err := queryPage(ctx, s, scanBlogPosting, "SELECT count(*) FROM blog_postings", sql)
	if err != nil {
		span.RecordError(err)
	}
	return items, err
}

func (s *Postgres) BlogPosting(ctx context.Context, id uuid.UUID) (BlogPosting, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.BlogPosting")
	defer span.End()

	rows, err := s.pool.Query(ctx, "SELECT "+blogPostingColumns+" FROM blog_postings WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		return BlogPosting{}, err
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBlogPosting)
	if errors.Is(err, pgx.ErrNoRows) {
		return BlogPosting{}, blogPostingNotFound(id)
	}
	return b, err
}

func (s *Postgres) BlogPostingsBy(ctx context.Context, author int64, p model.Pagination) (model.Items[BlogPosting], error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.BlogPostingsBy")
	defer span.End()

	exists, err := s.count(ctx, "SELECT count(*) FROM people WHERE id = $1", author)
	if err != nil {
		span.RecordError(err)
		return model.Items[BlogPosting]{}, err
	}
	if exists == 0 {
		return model.Items[BlogPosting]{}, personNotFound(author)
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM blog_postings WHERE author = $1 ORDER BY created, id LIMIT %d OFFSET %d",
		blogPostingColumns, p.Limit(), p.Offset(),
	)
	items, err := queryPage(ctx, s, scanBlogPosting, "SELECT count(*) FROM blog_postings WHERE author = $1", sql, author)
	if err != nil {
		span.RecordError(err)
	}
	return items, err
}

func (s *Postgres) AddBlogPosting(ctx context.Context, f BlogPostingForm) (BlogPosting, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.AddBlogPosting")
	defer span.End()

	rows, err := s.pool.Query(
		ctx,
		`INSERT INTO blog_postings (id, headline, body, author)
		VALUES ($1, $2, $3, $4)
		RETURNING `+blogPostingColumns,
		uuid.New(), f.Headline, f.Body, f.Author,
	)
	if err != nil {
		span.RecordError(err)
		return BlogPosting{}, err
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBlogPosting)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return BlogPosting{}, apierror.ConflictError{Cause: UnknownAuthorError{Author: f.Author}}
	}
	return b, err
}

func (s *Postgres) PublishBlogPosting(ctx context.Context, id uuid.UUID, at time.Time) (BlogPosting, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Postgres.PublishBlogPosting")
	defer span.End()

	rows, err := s.pool.Query(
		ctx,
		`UPDATE blog_postings SET published = COALESCE(published, $2)
		WHERE id = $1
		RETURNING `+blogPostingColumns,
		id, at.UTC(),
	)
	if err != nil {
		span.RecordError(err)
		return BlogPosting{}, err
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBlogPosting)
	if errors.Is(err, pgx.ErrNoRows) {
		return BlogPosting{}, blogPostingNotFound(id)
	}
	return b, err
}
