package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrFetchFailed               = errors.New("fetch failed")
	ErrClassificationPartial     = errors.New("classification partially failed")
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrSummarizationFailed       = errors.New("summarization failed")
	ErrValidation                = errors.New("validation error")
)

// FetchFailedError carries the upstream status so callers can tell "zero reviews" from "fetch error".
type FetchFailedError struct {
	Source  string
	Status  int
	Message string
}

func (e *FetchFailedError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: fetch failed (status %d): %s", e.Source, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: fetch failed: %s", e.Source, e.Message)
}

func (e *FetchFailedError) Is(target error) bool { return target == ErrFetchFailed }

type PartialFailureError struct {
	FailedChunks int
	TotalChunks  int
	FailedDocs   int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("sentiment analysis failed for %d of %d batches (%d reviews marked neutral)",
		e.FailedChunks, e.TotalChunks, e.FailedDocs)
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrClassificationPartial }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }
