package search

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"nyapix/internal/relindex"
)

var (
	ErrInvalidRequest = errors.New("invalid search request")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
)

const (
	DefaultPage       = 1
	DefaultMaxResults = 10
	MaxPageSize       = 500
)

// Request is a faceted search. ViewerID 0 searches as the anonymous viewer.
type Request struct {
	NeededTags         []int64 `json:"needed_tags"`
	NeededCharacters   []int64 `json:"needed_characters"`
	NeededAuthors      []int64 `json:"needed_authors"`
	ExcludedTags       []int64 `json:"tags_to_exclude"`
	ExcludedCharacters []int64 `json:"characters_to_exclude"`
	ExcludedAuthors    []int64 `json:"authors_to_exclude"`
	Page               int     `json:"page" validate:"gte=1"`
	MaxResults         int     `json:"max_results" validate:"gt=0,lte=500"`
	ViewerID           int64   `json:"-" validate:"gte=0"`
}

// Query returns the facet part of the request.
func (r Request) Query() relindex.Query {
	return relindex.Query{
		Needed: relindex.Facets{
			Tags:       r.NeededTags,
			Characters: r.NeededCharacters,
			Authors:    r.NeededAuthors,
		},
		Excluded: relindex.Facets{
			Tags:       r.ExcludedTags,
			Characters: r.ExcludedCharacters,
			Authors:    r.ExcludedAuthors,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks paging and viewer fields. Errors wrap ErrInvalidRequest.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s", ErrInvalidRequest, fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}
