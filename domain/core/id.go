package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one execution of a study; it is stamped on every result
// row so rows from repeated runs against the same table stay distinguishable.
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// NewRunID creates a fresh run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// StudyLabel is the composite label naming one (study, model, data)
// combination. It doubles as the result-store table name after sanitization.
type StudyLabel string

// NewStudyLabel composes the label result tables are keyed by:
// study__model__data.
func NewStudyLabel(study, model, data string) StudyLabel {
	return StudyLabel(fmt.Sprintf("%s__%s__%s", study, model, data))
}

func (l StudyLabel) String() string { return string(l) }

// TableName sanitizes the label into a bare SQL identifier. Anything outside
// [A-Za-z0-9_] becomes an underscore; a leading digit gets a prefix.
func (l StudyLabel) TableName() string {
	var b strings.Builder
	for _, r := range string(l) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "s_" + name
	}
	return name
}
