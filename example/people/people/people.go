// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package people is a small directory of people and the blog postings they
// author, exposed as hypermedia resources.
package people

import (
	"context"
	"time"

	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/representor"

	"github.com/google/uuid"
)

// Person is a member of the directory.
type Person struct {
	ID         int64
	GivenName  string
	FamilyName string
	Email      string
	JobTitle   string
	AvatarKey  string
	Joined     time.Time
}

// PersonForm is the body of the create and replace person operations.
type PersonForm struct {
	GivenName  string `json:"givenName" required:"true" minLength:"1"`
	FamilyName string `json:"familyName" required:"true" minLength:"1"`
	Email      string `json:"email" required:"true" format:"email"`
	JobTitle   string `json:"jobTitle,omitempty"`
}

// BlogPosting is an article written by a [Person].
type BlogPosting struct {
	ID        uuid.UUID
	Headline  string
	Body      string
	Author    int64
	Created   time.Time
	Published *time.Time
}

// BlogPostingForm is the body of the create blog posting operation.
type BlogPostingForm struct {
	Headline string `json:"headline" required:"true" minLength:"1"`
	Body     string `json:"body" required:"true"`
	Author   int64  `json:"author" required:"true" minimum:"1"`
}

// Store persists people and their blog postings. Missing items are
// reported as an apierror.NotFoundError.
type Store interface {
	People(ctx context.Context, p model.Pagination) (model.Items[Person], error)
	Person(ctx context.Context, id int64) (Person, error)
	AddPerson(ctx context.Context, f PersonForm) (Person, error)
	ReplacePerson(ctx context.Context, id int64, f PersonForm) (Person, error)
	RemovePerson(ctx context.Context, id int64) error

	BlogPostings(ctx context.Context, p model.Pagination) (model.Items[BlogPosting], error)
	BlogPosting(ctx context.Context, id uuid.UUID) (BlogPosting, error)
	BlogPostingsBy(ctx context.Context, author int64, p model.Pagination) (model.Items[BlogPosting], error)
	AddBlogPosting(ctx context.Context, f BlogPostingForm) (BlogPosting, error)
	PublishBlogPosting(ctx context.Context, id uuid.UUID, at time.Time) (BlogPosting, error)
}

// Avatars opens the avatar of a person.
type Avatars func(context.Context, Person) (representor.BinaryFile, error)

// NoAvatars reports every avatar as missing.
func NoAvatars(_ context.Context, p Person) (representor.BinaryFile, error) {
	return representor.BinaryFile{}, representor.BinaryNotFoundError{Key: p.AvatarKey}
}
