package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidArchive is returned when an upload is not a usable zip archive
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrResourceUnavailable is returned when a required asset (base image) cannot be loaded
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrFolioNotSeeded is returned when the persistent folio counter row does not exist
	ErrFolioNotSeeded = errors.New("folio counter not initialised")
)
