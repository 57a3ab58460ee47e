package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramHashDeterministic(t *testing.T) {
	text := "|_inp0: i64| let obj100 = (_inp0 + 1L);\nobj100"
	assert.Equal(t, ProgramHash(text), ProgramHash(text))
	assert.Len(t, ProgramHash(text), 64)
}

func TestProgramHashDistinct(t *testing.T) {
	assert.NotEqual(t, ProgramHash("a"), ProgramHash("b"))
}

func TestHashDomainSeparation(t *testing.T) {
	// Same bytes hashed under different domains must differ.
	assert.NotEqual(t, ProgramHash("x"), FrameHash([]byte("x")))
}
