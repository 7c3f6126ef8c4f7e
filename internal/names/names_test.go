package names

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIsDashedAndDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	re := regexp.MustCompile(`^[a-z]+-[a-z]+$`)
	for i := 0; i < 20; i++ {
		name := a.Next()
		assert.Regexp(t, re, name)
		assert.Equal(t, name, b.Next())
	}
}

func TestNewRandomProducesNames(t *testing.T) {
	assert.NotEmpty(t, NewRandom().Next())
}
