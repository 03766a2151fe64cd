package repository

import (
	"errors"
	"fmt"
	"time"

	"botshop/models"
)

// errReadOnly is returned when a repository write is attempted inside a read task
var errReadOnly = errors.New("write attempted in a read-only store task")

// scope is the document a repository works on. It is only valid for the
// duration of the store task that created it.
type scope struct {
	doc      *models.Document
	now      time.Time
	readOnly bool
}

func (s *scope) checkWritable(op string) error {
	if s.readOnly {
		return fmt.Errorf("%s: %w", op, errReadOnly)
	}
	return nil
}
