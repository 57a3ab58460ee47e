package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareNamesNumericSuffix(t *testing.T) {
	assert.Equal(t, -1, CompareNames("_inp2", "_inp10"))
	assert.Equal(t, 1, CompareNames("obj1000", "obj999"))
	assert.Equal(t, 0, CompareNames("obj100", "obj100"))
}

func TestCompareNamesDifferentPrefix(t *testing.T) {
	assert.Equal(t, -1, CompareNames("_inp5", "obj1"))
	assert.Equal(t, -1, CompareNames("a", "b"))
}

func TestSortNames(t *testing.T) {
	names := []string{"_inp10", "_inp2", "_inp0", "_inp1"}
	SortNames(names)
	assert.Equal(t, []string{"_inp0", "_inp1", "_inp2", "_inp10"}, names)
}
