package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockIdentifyNewStartsAtOne(t *testing.T) {
	mock := NewMock(1)
	assert.Equal(t, "Student 1", mock.IdentifyNew(nil))
}

func TestMockIdentifyNewContinuesSequence(t *testing.T) {
	mock := NewMock(1)
	name := mock.IdentifyNew([]string{"Student 1", "Student 3", "Ana Reyes"})
	assert.Equal(t, "Student 4", name)
}

func TestMockIdentifyNewIgnoresNamesWithoutNumbers(t *testing.T) {
	mock := NewMock(1)
	name := mock.IdentifyNew([]string{"Ana Reyes", "Ben Cruz"})
	assert.Equal(t, "Student 1", name)
}

func TestMockIdentifyActiveEmpty(t *testing.T) {
	mock := NewMock(1)
	_, ok := mock.IdentifyActive(nil)
	assert.False(t, ok)
}

func TestMockIdentifyActivePicksFromActive(t *testing.T) {
	mock := NewMock(42)
	active := []string{"Ana Reyes", "Ben Cruz", "Student 3"}
	for i := 0; i < 10; i++ {
		name, ok := mock.IdentifyActive(active)
		require.True(t, ok)
		assert.Contains(t, active, name)
	}
}
