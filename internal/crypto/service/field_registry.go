package service

import (
	"fmt"
	"sort"
	"sync"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
)

// FieldStatus describes the outcome of a per-field decrypt attempt.
type FieldStatus string

const (
	// FieldDecrypted means the field was flagged, parsed, and decrypted.
	FieldDecrypted FieldStatus = "decrypted"

	// FieldFailed means the field was flagged but could not be decrypted;
	// the ciphertext is left in place so a corrupt field does not fail the
	// whole record read. Callers must check the status before treating the
	// value as plaintext.
	FieldFailed FieldStatus = "failed"

	// FieldPlaintext means the field is registered but carried no
	// encrypted flag, so it passed through untouched.
	FieldPlaintext FieldStatus = "plaintext"
)

// encryptedFlag names the sibling boolean marking a field as encrypted.
func encryptedFlag(field string) string {
	return field + "_encrypted"
}

// FieldRegistry maps table+field names to encryption handling and drives
// whole-record encrypt/decrypt through the Encryptor.
//
// Registered fields holding a non-empty string value are replaced by the
// serialized payload plus a sibling "<field>_encrypted" flag; everything
// else passes through untouched.
type FieldRegistry struct {
	mu        sync.RWMutex
	tables    map[string]map[string]bool
	encryptor Encryptor
}

// NewFieldRegistry creates a FieldRegistry with no registrations.
func NewFieldRegistry(encryptor Encryptor) *FieldRegistry {
	return &FieldRegistry{
		tables:    make(map[string]map[string]bool),
		encryptor: encryptor,
	}
}

// NewDefaultFieldRegistry creates a FieldRegistry preloaded with the
// sensitive fields of the field-service schema.
func NewDefaultFieldRegistry(encryptor Encryptor) *FieldRegistry {
	r := NewFieldRegistry(encryptor)
	r.Register("clients", "phone", "email", "address")
	r.Register("technicians", "phone", "personal_id")
	r.Register("payments", "card_number", "account_number")
	return r
}

// Register marks fields of a table for encryption. Registering an already
// registered field is a no-op.
func (r *FieldRegistry) Register(table string, fields ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.tables[table]
	if !ok {
		set = make(map[string]bool)
		r.tables[table] = set
	}
	for _, field := range fields {
		set[field] = true
	}
}

// Fields returns the registered fields for a table, sorted.
func (r *FieldRegistry) Fields(table string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]string, 0, len(r.tables[table]))
	for field := range r.tables[table] {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Tables returns all tables with registrations, sorted.
func (r *FieldRegistry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make([]string, 0, len(r.tables))
	for table := range r.tables {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

// EncryptRecord returns a copy of record with every registered field
// sealed and its "<field>_encrypted" flag set.
//
// Only non-empty string values are encrypted; fields of other types,
// absent fields, and unregistered fields pass through untouched. An
// already-flagged field is left alone to keep the operation idempotent.
func (r *FieldRegistry) EncryptRecord(table string, record map[string]any) (map[string]any, error) {
	out := cloneRecord(record)

	for _, field := range r.Fields(table) {
		if flagged, _ := out[encryptedFlag(field)].(bool); flagged {
			continue
		}
		value, ok := out[field].(string)
		if !ok || value == "" {
			continue
		}

		payload, err := r.encryptor.Encrypt([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt field %s.%s: %w", table, field, err)
		}

		out[field] = payload.String()
		out[encryptedFlag(field)] = true
	}

	return out, nil
}

// DecryptRecord returns a copy of record with every flagged registered
// field opened, plus a per-field status map.
//
// A field that fails to parse or decrypt keeps its stored value and is
// reported as FieldFailed; the record read still succeeds. Successfully
// decrypted fields have their flag cleared.
func (r *FieldRegistry) DecryptRecord(
	table string,
	record map[string]any,
) (map[string]any, map[string]FieldStatus, error) {
	out := cloneRecord(record)
	status := make(map[string]FieldStatus)

	for _, field := range r.Fields(table) {
		if _, present := out[field]; !present {
			continue
		}
		if flagged, _ := out[encryptedFlag(field)].(bool); !flagged {
			status[field] = FieldPlaintext
			continue
		}

		value, ok := out[field].(string)
		if !ok {
			status[field] = FieldFailed
			continue
		}

		payload, err := cryptoDomain.ParseEncryptedPayload(value)
		if err != nil {
			status[field] = FieldFailed
			continue
		}

		plaintext, err := r.encryptor.Decrypt(payload)
		if err != nil {
			status[field] = FieldFailed
			continue
		}

		out[field] = string(plaintext)
		out[encryptedFlag(field)] = false
		status[field] = FieldDecrypted
	}

	return out, status, nil
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
