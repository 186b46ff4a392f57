package services

import "errors"

var (
	ErrUnauthenticated    = errors.New("no authenticated requester")
	ErrForbidden          = errors.New("action not permitted for requester")
	ErrSubjectNotFound    = errors.New("candidate not found")
	ErrSubjectRoleInvalid = errors.New("selected user is not a candidate")
	ErrValidation         = errors.New("missing or invalid required fields")
)
