package batch

import (
	"errors"
	"fmt"

	"github.com/randomizedcoder/trng/internal/validate"
)

// Category separates bad caller input from service failures.
type Category string

const (
	// CategoryInput covers validation failures.
	CategoryInput Category = "input"
	// CategoryService covers transport and response format failures.
	CategoryService Category = "service"
)

// ServiceFailureMessage is the summary used for every service failure.
const ServiceFailureMessage = "Failed to fetch a number from Random.org"

// Classify reports which category err belongs to.
func Classify(err error) Category {
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		return CategoryInput
	}
	return CategoryService
}

// ItemError is a failed unit of work, tagged with its position in the batch.
type ItemError struct {
	Index    int
	Category Category
	// Message is the user-facing summary. For input errors it is the
	// validation message itself.
	Message string
	// Description carries the cause text for service errors.
	Description string
	Cause       error
}

func (e *ItemError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("item %d: %s: %s", e.Index, e.Message, e.Description)
	}
	return fmt.Sprintf("item %d: %s", e.Index, e.Message)
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

// Wrap converts err from validation or fetching into an *ItemError.
func Wrap(index int, err error) *ItemError {
	if Classify(err) == CategoryInput {
		return &ItemError{
			Index:    index,
			Category: CategoryInput,
			Message:  err.Error(),
			Cause:    err,
		}
	}
	return &ItemError{
		Index:       index,
		Category:    CategoryService,
		Message:     ServiceFailureMessage,
		Description: err.Error(),
		Cause:       err,
	}
}
