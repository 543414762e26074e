package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tells a caller which class of failure stopped an import.
type ErrorKind string

const (
	// KindValidation means the file was rejected before any write.
	KindValidation ErrorKind = "validation"

	// KindStorage means a store call failed. Earlier stages may have been
	// applied unless the import ran in atomic mode.
	KindStorage ErrorKind = "storage"
)

// Sentinels for errors.Is against an *ImportError.
var (
	ErrValidation = errors.New("import validation failed")
	ErrStorage    = errors.New("import storage failed")
)

// ImportError is returned by Service.Import when a stage fails.
type ImportError struct {
	Kind     ErrorKind
	Phase    ImportPhase // the stage that failed
	Err      error
	Problems []ValidationError // set for KindValidation
}

func (e *ImportError) Error() string {
	if e.Kind == KindValidation && len(e.Problems) > 0 {
		msgs := make([]string, 0, 3)
		for i, p := range e.Problems {
			if i == 3 {
				msgs = append(msgs, fmt.Sprintf("and %d more", len(e.Problems)-3))
				break
			}
			msgs = append(msgs, p.Error())
		}
		return fmt.Sprintf("%s failed at %s: %s", e.Kind, e.Phase, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s failed at %s: %v", e.Kind, e.Phase, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation and ErrStorage against the error's kind.
func (e *ImportError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}

// KindOf returns the ErrorKind carried by err, or "" if err is not an ImportError.
func KindOf(err error) ErrorKind {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

func validationError(phase ImportPhase, err error, problems []ValidationError) *ImportError {
	if err == nil && len(problems) > 0 {
		err = problems[0]
	}
	return &ImportError{Kind: KindValidation, Phase: phase, Err: err, Problems: problems}
}

func storageError(phase ImportPhase, err error) *ImportError {
	return &ImportError{Kind: KindStorage, Phase: phase, Err: err}
}
