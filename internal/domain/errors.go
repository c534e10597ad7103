package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrInvalidStatus    = errors.New("invalid incident status")
	ErrQueueExhausted   = errors.New("no scenario left to generate")
	ErrAlreadyGenerated = errors.New("scenario already generated")
	ErrStoreUnavailable = errors.New("store unavailable")
)
