package classify

import "errors"

var (
	// ErrProvider is the base error for classification provider failures.
	ErrProvider = errors.New("classification provider error")

	// ErrSubmissionRejected indicates the provider refused a bulk submission
	// outright (as opposed to rejecting individual items).
	ErrSubmissionRejected = errors.New("bulk submission rejected")

	// ErrJobNotCompleted indicates results were requested for a job that has
	// not completed.
	ErrJobNotCompleted = errors.New("job not completed")

	// ErrMalformedResponse indicates the provider returned output that could
	// not be parsed even after repair.
	ErrMalformedResponse = errors.New("malformed provider response")
)
