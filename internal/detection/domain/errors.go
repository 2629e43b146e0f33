package domain

import (
	"github.com/fieldsrv/guardpost/internal/errors"
)

var (
	// ErrEventNotFound indicates the referenced intrusion event does not exist.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "intrusion event not found")

	// ErrInvalidAddress indicates a source address could not be parsed as an IP.
	ErrInvalidAddress = errors.Wrap(errors.ErrInvalidInput, "invalid source address")

	// ErrInvalidLearningMode indicates an unknown profile learning mode.
	ErrInvalidLearningMode = errors.Wrap(errors.ErrInvalidInput, "invalid profile learning mode")

	// ErrInvalidConfigValue indicates a detection config field failed validation.
	ErrInvalidConfigValue = errors.Wrap(errors.ErrInvalidInput, "invalid detection config value")
)
