package requestid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithAndFrom(t *testing.T) {
	assert.Equal(t, "", From(context.Background()))
	assert.Equal(t, "req-1", From(With(context.Background(), "req-1")))
}
