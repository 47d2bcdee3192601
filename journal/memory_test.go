package journal

import (
	"context"
	"testing"
)

func TestMemoryJournal(t *testing.T) {
	suite := NewValidationSuite(context.Background(), NewMemoryJournal())
	suite.Run(t)
}
