package webhook

import "errors"

var (
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
