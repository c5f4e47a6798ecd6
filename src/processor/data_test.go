package processor

import (
	"GamesAnalysis/src/config"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var athleteRecords = [][]string{
	{"competitorname", "gender", "division", "age", "height", "weight", "overallrank", "overallscore"},
	{"Mathew Fraser", "M", "Men", "29", "170", "86", "1", "1000"},
	{"Tia-Clair Toomey", "F", "Women", "26", "163", "58", "1", "1100"},
	{"Kara Saunders", "X", "Women", "29", "168", "64", "2", "920"},
	{"Jason Grubb", "X", "Men (35-39)", "36", "180", "85", "3", "300"},
	{"Annie Sakamoto", "X", "Women (40-44)", "42", "157", "55", "1", "420"},
}

func loadAthletes(records [][]string) dataframe.DataFrame {
	return dataframe.LoadRecords(records, dataframe.DetectTypes(true))
}

func genderCode(t *testing.T, df dataframe.DataFrame, row int) int {
	t.Helper()
	v, err := df.Col("gender").Elem(row).Int()
	require.NoError(t, err)
	return v
}

func TestCleanDataResolvesEveryDivision(t *testing.T) {
	raw := loadAthletes(athleteRecords)
	p := NewDataProcessor(raw, config.DefaultDataConfig(), nil)

	require.NoError(t, p.CleanData())
	df := p.Cleaned()

	assert.Equal(t, []string{"division", "age", "gender", "height", "weight", "overallscore"}, df.Names())
	assert.Equal(t, raw.Nrow(), df.Nrow())
	assert.Equal(t, series.Int, df.Col("gender").Type())
	assert.Zero(t, p.Unresolved())

	want := []int{0, 1, 1, 0, 1}
	for i, code := range want {
		assert.Equal(t, code, genderCode(t, df, i), "row %d", i)
	}

	// 原始表不受影响
	assert.Equal(t, 8, p.Raw().Ncol())
	assert.Equal(t, "X", p.Raw().Col("gender").Elem(3).String())
}

func TestCleanDataScenarios(t *testing.T) {
	raw := loadAthletes([][]string{
		{"division", "age", "gender", "height", "weight", "overallscore"},
		{"Men (35-39)", "36", "X", "180", "85", "300"},
		{"Women", "24", "X", "165", "60", "410"},
	})
	p := NewDataProcessor(raw, config.DefaultDataConfig(), nil)
	require.NoError(t, p.CleanData())

	assert.Equal(t, 0, genderCode(t, p.Cleaned(), 0))
	assert.Equal(t, 1, genderCode(t, p.Cleaned(), 1))
}

func TestImputeIsCaseSensitive(t *testing.T) {
	raw := loadAthletes([][]string{
		{"division", "age", "gender", "height", "weight", "overallscore"},
		{"men", "30", "X", "180", "85", "300"},
		{"Teen Boys (16-17)", "16", "X", "175", "70", "500"},
		{"Men", "31", "M", "178", "82", "510"},
	})
	p := NewDataProcessor(raw, config.DefaultDataConfig(), nil)
	require.NoError(t, p.CleanData())

	df := p.Cleaned()
	assert.Equal(t, 2, p.Unresolved())
	assert.Equal(t, series.String, df.Col("gender").Type())
	assert.Equal(t, []string{"X", "X", "0"}, df.Col("gender").Records())
}

func TestRecodeLeavesUnknownLabels(t *testing.T) {
	raw := loadAthletes([][]string{
		{"division", "age", "gender", "height", "weight", "overallscore"},
		{"Open", "30", "W", "165", "60", "300"},
		{"Open", "30", "M", "180", "85", "300"},
		{"Open", "30", "F", "170", "65", "300"},
	})
	p := NewDataProcessor(raw, config.DefaultDataConfig(), nil)
	require.NoError(t, p.CleanData())
	assert.Equal(t, []string{"1", "0", "F"}, p.Cleaned().Col("gender").Records())
	assert.Equal(t, 1, p.Unresolved())
}

func TestSelectMissingColumn(t *testing.T) {
	raw := loadAthletes([][]string{
		{"division", "age", "gender", "height", "overallscore"},
		{"Men", "30", "X", "180", "300"},
	})
	p := NewDataProcessor(raw, config.DefaultDataConfig(), nil)

	err := p.CleanData()
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "weight")
}

func TestInfo(t *testing.T) {
	raw := loadAthletes([][]string{
		{"division", "age", "height"},
		{"Men", "30", "NaN"},
		{"Women", "NaN", "170"},
		{"Women", "28", "165"},
	})

	infos := Info(raw)
	require.Len(t, infos, 3)
	assert.Equal(t, ColumnInfo{Name: "division", NonNull: 3, Type: "string"}, infos[0])
	assert.Equal(t, ColumnInfo{Name: "age", NonNull: 2, Type: "int"}, infos[1])
	assert.Equal(t, 2, infos[2].NonNull)
}

func TestValueCountsAndUnique(t *testing.T) {
	raw := loadAthletes(athleteRecords)

	counts, err := ValueCounts(raw, "gender")
	require.NoError(t, err)
	assert.Equal(t, []ValueCount{{"M", 1}, {"F", 1}, {"X", 3}}, counts)

	values, err := Unique(raw, "division")
	require.NoError(t, err)
	assert.Equal(t, []string{"Men", "Women", "Men (35-39)", "Women (40-44)"}, values)

	_, err = Unique(raw, "country")
	assert.ErrorIs(t, err, ErrMissingColumn)
}
