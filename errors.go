package augment

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIntegrity groups failures caused by inconsistent stored data.
	ErrDataIntegrity = errors.New("augment: data integrity violation")
	// ErrConfiguration groups failures caused by missing or invalid setup.
	ErrConfiguration = errors.New("augment: configuration error")

	ErrOriginCycle       = fmt.Errorf("%w: origin chain cycle", ErrDataIntegrity)
	ErrOriginTooDeep     = fmt.Errorf("%w: origin chain too deep", ErrDataIntegrity)
	ErrBlueprintNotFound = fmt.Errorf("%w: blueprint not found", ErrConfiguration)

	ErrRecordRequired      = errors.New("augment: record is required")
	ErrFieldHandleRequired = errors.New("augment: field handle must be provided")
	ErrDuplicateField      = errors.New("augment: field handles must be unique")
	ErrDuplicateBlueprint  = errors.New("augment: blueprint handles must be unique")
	ErrDuplicateComputed   = errors.New("augment: computed property names must be unique")
	ErrComputedNameMissing = errors.New("augment: computed property name must be provided")
)

// ResolutionError annotates integrity and configuration failures with the
// record and key being resolved.
type ResolutionError struct {
	RecordID string
	Key      string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key == "" {
		return fmt.Sprintf("augment: resolve record=%q: %v", e.RecordID, e.Err)
	}
	return fmt.Sprintf("augment: resolve record=%q key=%q: %v", e.RecordID, e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapResolutionError annotates err only when it belongs to the engine's own
// error families. Collaborator errors are returned unchanged.
func wrapResolutionError(recordID, key string, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrDataIntegrity) && !errors.Is(err, ErrConfiguration) {
		return err
	}
	var existing *ResolutionError
	if errors.As(err, &existing) {
		if existing.Key == "" && key != "" {
			clone := *existing
			clone.Key = key
			return &clone
		}
		return err
	}
	return &ResolutionError{RecordID: recordID, Key: key, Err: err}
}
