package dto

import (
	"github.com/fieldsrv/guardpost/internal/crypto/service"
	"github.com/fieldsrv/guardpost/internal/crypto/usecase"
)

// ListKeysResponse represents the key ring metadata in API responses.
type ListKeysResponse struct {
	Data []usecase.KeyMetadata `json:"data"`
}

// MapKeysToListResponse converts key metadata to a list response.
func MapKeysToListResponse(keys []usecase.KeyMetadata) ListKeysResponse {
	if keys == nil {
		keys = []usecase.KeyMetadata{}
	}
	return ListKeysResponse{Data: keys}
}

// EncryptRecordResponse contains a record with its registered fields sealed.
type EncryptRecordResponse struct {
	Record map[string]any `json:"record"`
}

// DecryptRecordResponse contains a record with its flagged fields opened
// and the per-field decryption outcome.
type DecryptRecordResponse struct {
	Record      map[string]any    `json:"record"`
	FieldStatus map[string]string `json:"field_status"`
}

// MapDecryptRecordResponse converts a decrypted record and its field
// statuses to an API response.
func MapDecryptRecordResponse(
	record map[string]any,
	statuses map[string]service.FieldStatus,
) DecryptRecordResponse {
	fieldStatus := make(map[string]string, len(statuses))
	for field, status := range statuses {
		fieldStatus[field] = string(status)
	}

	return DecryptRecordResponse{
		Record:      record,
		FieldStatus: fieldStatus,
	}
}
