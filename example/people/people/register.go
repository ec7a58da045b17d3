// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package people

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/routes"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const (
	// PeopleResource is the resource name of [Person].
	PeopleResource = "people"

	// BlogPostingsResource is the resource name of [BlogPosting].
	BlogPostingsResource = "blog-postings"
)

var (
	personForm      = form.MustNew[PersonForm]("person-form")
	blogPostingForm = form.MustNew[BlogPostingForm]("blog-posting-form")
)

// Options configure [Register].
type Options struct {
	avatars Avatars
	admin   string
	now     func() time.Time
}

// Option configures [Register].
type Option func(*Options)

// WithAvatars sets where avatars are read from. By default there are none.
func WithAvatars(a Avatars) Option {
	return func(o *Options) {
		o.avatars = a
	}
}

// Admin names the caller allowed to remove people. Without it nobody is.
func Admin(name string) Option {
	return func(o *Options) {
		o.admin = name
	}
}

// Clock overrides the time used to publish blog postings.
func Clock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}

// Register adds the people and blog-postings resources to reg.
func Register(reg *registry.Registry, store Store, opts ...Option) error {
	o := &Options{
		avatars: NoAvatars,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	personRep, err := personRepresentor(o.avatars)
	if err != nil {
		return err
	}
	personRoutes, err := personRoutes(store, o.admin)
	if err != nil {
		return err
	}
	err = reg.Register(personRep, personRoutes)
	if err != nil {
		return err
	}

	postingRep, err := blogPostingRepresentor()
	if err != nil {
		return err
	}
	postingRoutes, err := blogPostingRoutes(store, o.now)
	if err != nil {
		return err
	}
	return reg.Register(postingRep, postingRoutes)
}

var greetings = map[language.Base]string{
	language.MustParseBase("en"): "Hello, %s",
	language.MustParseBase("es"): "Hola, %s",
	language.MustParseBase("de"): "Hallo, %s",
}

func greeting(p Person, tag language.Tag) string {
	base, _ := tag.Base()
	format, ok := greetings[base]
	if !ok {
		format = greetings[language.MustParseBase("en")]
	}
	return fmt.Sprintf(format, p.GivenName)
}

func personRepresentor(avatars Avatars) (*representor.Representor, error) {
	return representor.New(func(p Person) int64 { return p.ID }).
		Types("Person").
		String("givenName", func(p Person) string { return p.GivenName }).
		String("familyName", func(p Person) string { return p.FamilyName }).
		String("email", func(p Person) string { return p.Email }).
		String("jobTitle", func(p Person) string { return p.JobTitle }).
		LocalizedString("greeting", greeting).
		Date("joined", func(p Person) time.Time { return p.Joined }).
		Binary("avatar", avatars).
		Link("license", "https://opensource.org/licenses/MIT").
		RelatedCollection("blogPosts", BlogPostingsResource).
		Build()
}

func blogPostingRepresentor() (*representor.Representor, error) {
	return representor.New(func(b BlogPosting) uuid.UUID { return b.ID }).
		Types("BlogPosting").
		String("headline", func(b BlogPosting) string { return b.Headline }).
		String("articleBody", func(b BlogPosting) string { return b.Body }).
		Date("dateCreated", func(b BlogPosting) time.Time { return b.Created }).
		Boolean("published", func(b BlogPosting) bool { return b.Published != nil }).
		LinkedModel("author", PeopleResource, func(b BlogPosting) any { return b.Author }).
		Build()
}

func adminOnly(admin string) operation.Permission {
	return func(_ context.Context, c operation.Check) (bool, error) {
		if admin == "" {
			return false, nil
		}
		name, _ := c.Credentials.(string)
		return name == admin, nil
	}
}

func personRoutes(store Store, admin string) (*routes.Set, error) {
	b := routes.New[Person, int64](PeopleResource).
		RetrievePage(func(ctx context.Context, req routes.Request) (model.Items[Person], error) {
			return store.People(ctx, req.Pagination)
		}).
		Retrieve(func(ctx context.Context, _ routes.Request, id int64) (Person, error) {
			return store.Person(ctx, id)
		}).
		Remove(func(ctx context.Context, _ routes.Request, id int64) error {
			return store.RemovePerson(ctx, id)
		}, routes.WithPermission(adminOnly(admin)))

	routes.Create(b, personForm, func(ctx context.Context, _ routes.Request, f PersonForm) (Person, error) {
		return store.AddPerson(ctx, f)
	})
	routes.Replace(b, personForm, func(ctx context.Context, _ routes.Request, id int64, f PersonForm) (Person, error) {
		return store.ReplacePerson(ctx, id, f)
	})
	return b.Build()
}

func blogPostingRoutes(store Store, now func() time.Time) (*routes.Set, error) {
	b := routes.New[BlogPosting, uuid.UUID](BlogPostingsResource).
		RetrievePage(func(ctx context.Context, req routes.Request) (model.Items[BlogPosting], error) {
			return store.BlogPostings(ctx, req.Pagination)
		}).
		Retrieve(func(ctx context.Context, _ routes.Request, id uuid.UUID) (BlogPosting, error) {
			return store.BlogPosting(ctx, id)
		})

	routes.Create(b, blogPostingForm, func(ctx context.Context, _ routes.Request, f BlogPostingForm) (BlogPosting, error) {
		return store.AddBlogPosting(ctx, f)
	})
	routes.RetrieveNested(b, PeopleResource, func(ctx context.Context, req routes.Request, author int64) (model.Items[BlogPosting], error) {
		return store.BlogPostingsBy(ctx, author, req.Pagination)
	})
	routes.CustomItem(b, "publish", http.MethodPost, nil, func(ctx context.Context, _ routes.Request, id uuid.UUID, _ struct{}) (BlogPosting, error) {
		return store.PublishBlogPosting(ctx, id, now())
	})
	return b.Build()
}
