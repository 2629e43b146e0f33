// Package dto provides data transfer objects for the encryption admin API.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/fieldsrv/guardpost/internal/validation"
)

// TestEncryptionRequest contains the plaintext for an encryption round-trip test.
type TestEncryptionRequest struct {
	Plaintext string `json:"plaintext"`
}

// Validate checks if the test encryption request is valid.
func (r *TestEncryptionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 4096),
		),
	)
}

// EncryptRecordRequest contains a record whose registered fields should be sealed.
type EncryptRecordRequest struct {
	Record map[string]any `json:"record"`
}

// Validate checks if the encrypt record request is valid.
func (r *EncryptRecordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Record, validation.Required),
	)
}

// DecryptRecordRequest contains a record whose flagged fields should be opened.
type DecryptRecordRequest struct {
	Record map[string]any `json:"record"`
}

// Validate checks if the decrypt record request is valid.
func (r *DecryptRecordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Record, validation.Required),
	)
}
