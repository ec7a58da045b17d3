// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package people

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/z5labs/apio/example/people/people"

// InMemory is a [Store] which keeps everything in process memory.
type InMemory struct {
	mu       sync.Mutex
	nextID   int64
	people   map[int64]Person
	postings map[uuid.UUID]BlogPosting
	now      func() time.Time
}

// NewInMemory returns an empty [InMemory] store.
func NewInMemory() *InMemory {
	return &InMemory{
		nextID:   1,
		people:   make(map[int64]Person),
		postings: make(map[uuid.UUID]BlogPosting),
		now:      time.Now,
	}
}

func personNotFound(id int64) error {
	return apierror.NotFoundError{Resource: fmt.Sprintf("%s/%d", PeopleResource, id)}
}

func blogPostingNotFound(id uuid.UUID) error {
	return apierror.NotFoundError{Resource: fmt.Sprintf("%s/%s", BlogPostingsResource, id)}
}

func page[T any](items []T, p model.Pagination) model.Items[T] {
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.Limit(), total)
	return model.Items[T]{
		Items:      items[start:end],
		TotalCount: total,
	}
}

func (s *InMemory) People(ctx context.Context, p model.Pagination) (model.Items[Person], error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.People")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	people := slices.SortedFunc(maps.Values(s.people), func(a, b Person) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return page(people, p), nil
}

func (s *InMemory) Person(ctx context.Context, id int64) (Person, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.Person")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.people[id]
	if !exists {
		return Person{}, personNotFound(id)
	}
	return p, nil
}

func (s *InMemory) AddPerson(ctx context.Context, f PersonForm) (Person, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.AddPerson")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Person{
		ID:         s.nextID,
		GivenName:  f.GivenName,
		FamilyName: f.FamilyName,
		Email:      f.Email,
		JobTitle:   f.JobTitle,
		AvatarKey:  fmt.Sprintf("%s/%d", PeopleResource, s.nextID),
		Joined:     s.now().UTC(),
	}
	s.people[p.ID] = p
	s.nextID++
	return p, nil
}

func (s *InMemory) ReplacePerson(ctx context.Context, id int64, f PersonForm) (Person, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.ReplacePerson")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.people[id]
	if !exists {
		return Person{}, personNotFound(id)
	}
	p.GivenName = f.GivenName
	p.FamilyName = f.FamilyName
	p.Email = f.Email
	p.JobTitle = f.JobTitle
	s.people[id] = p
	return p, nil
}

func (s *InMemory) RemovePerson(ctx context.Context, id int64) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.RemovePerson")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[id]; !exists {
		return personNotFound(id)
	}
	delete(s.people, id)
	maps.DeleteFunc(s.postings, func(_ uuid.UUID, b BlogPosting) bool {
		return b.Author == id
	})
	return nil
}

func (s *InMemory) sortedPostings(keep func(BlogPosting) bool) []BlogPosting {
	var postings []BlogPosting
	for _, b := range s.postings {
		if keep(b) {
			postings = append(postings, b)
		}
	}
	slices.SortFunc(postings, func(a, b BlogPosting) int {
		return cmp.Or(
			a.Created.Compare(b.Created),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return postings
}

func (s *InMemory) BlogPostings(ctx context.Context, p model.Pagination) (model.Items[BlogPosting], error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.BlogPostings")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	postings := s.sortedPostings(func(BlogPosting) bool { return true })
	return page(postings, p), nil
}

func (s *InMemory) BlogPosting(ctx context.Context, id uuid.UUID) (BlogPosting, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.BlogPosting")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.postings[id]
	if !exists {
		return BlogPosting{}, blogPostingNotFound(id)
	}
	return b, nil
}

func (s *InMemory) BlogPostingsBy(ctx context.Context, author int64, p model.Pagination) (model.Items[BlogPosting], error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.BlogPostingsBy")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[author]; !exists {
		return model.Items[BlogPosting]{}, personNotFound(author)
	}
	postings := s.sortedPostings(func(b BlogPosting) bool { return b.Author == author })
	return page(postings, p), nil
}

// UnknownAuthorError is returned when a blog posting names an author who is
// not in the directory.
type UnknownAuthorError struct {
	Author int64
}

func (e UnknownAuthorError) Error() string {
	return fmt.Sprintf("unknown author: %d", e.Author)
}

func (s *InMemory) AddBlogPosting(ctx context.Context, f BlogPostingForm) (BlogPosting, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.AddBlogPosting")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[f.Author]; !exists {
		return BlogPosting{}, apierror.ConflictError{Cause: UnknownAuthorError{Author: f.Author}}
	}

	b := BlogPosting{
		ID:       uuid.New(),
		Headline: f.Headline,
		Body:     f.Body,
		Author:   f.Author,
		Created:  s.now().UTC(),
	}
	s.postings[b.ID] = b
	return b, nil
}

func (s *InMemory) PublishBlogPosting(ctx context.Context, id uuid.UUID, at time.Time) (BlogPosting, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "InMemory.PublishBlogPosting")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.postings[id]
	if !exists {
		return BlogPosting{}, blogPostingNotFound(id)
	}
	if b.Published == nil {
		at = at.UTC()
		b.Published = &at
		s.postings[id] = b
	}
	return b, nil
}
