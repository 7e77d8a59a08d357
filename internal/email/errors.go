package email

import "errors"

var (
	// ErrNoRecipient is returned when the user has no e-mail address on file.
	ErrNoRecipient = errors.New("email: recipient has no address")

	// ErrTemplateNotFound is returned when a message names an unknown template.
	ErrTemplateNotFound = errors.New("email: template not found")
)
