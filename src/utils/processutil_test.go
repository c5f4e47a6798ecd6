package utils

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
)

func TestHasColumn(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"Men"}, series.String, "division"),
		series.New([]int{30}, series.Int, "age"),
	)
	assert.True(t, HasColumn(df, "age"))
	assert.False(t, HasColumn(df, "weight"))
	assert.True(t, IsNumeric(df.Col("age")))
	assert.False(t, IsNumeric(df.Col("division")))
}

func TestFiniteValues(t *testing.T) {
	s := series.New([]string{"1", "NaN", "2.5", ""}, series.Float, "score")
	assert.Equal(t, []float64{1, 2.5}, FiniteValues(s))
}

func TestSortKeys(t *testing.T) {
	keys := []string{"10", "2", "1"}
	SortKeys(keys)
	assert.Equal(t, []string{"1", "2", "10"}, keys)

	keys = []string{"X", "1", "0"}
	SortKeys(keys)
	assert.Equal(t, []string{"0", "1", "X"}, keys)
}
