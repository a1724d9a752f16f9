package collections_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/alkime/lectio/pkg/collections"

	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("basic types", func(t *testing.T) {
		ints := []int{1, 2, 3, 4}
		squared := collections.Apply(ints, func(i int) int {
			return i * i
		})

		require.Equal(t, []int{1, 4, 9, 16}, squared)
	})

	t.Run("structs", func(t *testing.T) {
		type Book struct {
			Name     string
			Chapters int
		}

		books := []Book{
			{Name: "Genesis", Chapters: 50},
			{Name: "Ruth", Chapters: 4},
		}

		names := collections.Apply(books, func(b Book) string {
			return b.Name
		})

		require.Equal(t, []string{"Genesis", "Ruth"}, names)
	})
}

func TestTryApply(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		got, err := collections.TryApply([]string{"1", "2"}, strconv.Atoi)
		require.NoError(t, err)
		require.Equal(t, []int{1, 2}, got)
	})

	t.Run("first error wins", func(t *testing.T) {
		got, err := collections.TryApply([]string{"1", "x", "y"}, strconv.Atoi)
		require.Error(t, err)

		var numErr *strconv.NumError
		require.True(t, errors.As(err, &numErr))
		require.Equal(t, "x", numErr.Num)
		require.Nil(t, got)
	})
}

func TestFilterAndFind(t *testing.T) {
	verses := []int{1, 2, 3, 4, 5, 6}

	even := collections.Filter(verses, func(v int) bool { return v%2 == 0 })
	require.Equal(t, []int{2, 4, 6}, even)

	none := collections.Filter(verses, func(v int) bool { return v > 10 })
	require.Empty(t, none)

	got, ok := collections.Find(verses, func(v int) bool { return v > 3 })
	require.True(t, ok)
	require.Equal(t, 4, got)

	_, ok = collections.Find(verses, func(v int) bool { return v > 10 })
	require.False(t, ok)
}
