// Package audit provides PDR (Process Decision Record) writing for project
// edits and run dispatches.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/store"
)

// Outcomes recorded on a PDR.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// PDRWriter writes Process Decision Records for audit trails. A nil writer
// records nothing.
type PDRWriter struct {
	store *store.Store
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s *store.Store) *PDRWriter {
	return &PDRWriter{store: s}
}

// Record writes a PDR entry for a state-mutating action.
func (w *PDRWriter) Record(action string, inputs interface{}, outcome, subject, details string) (*models.PDREntry, error) {
	if w == nil || w.store == nil {
		return nil, nil
	}
	return w.store.WritePDR(action, HashInputs(inputs), outcome, subject, details)
}

// Outcome maps an error to the recorded outcome.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeSuccess
}

// HashInputs creates a SHA256 hash of the inputs for reproducibility.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
