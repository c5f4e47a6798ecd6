package report

import (
	"GamesAnalysis/src/processor"
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintInfo(&buf, "cleaned", 394, []processor.ColumnInfo{
		{Name: "division", NonNull: 394, Type: "string"},
		{Name: "age", NonNull: 390, Type: "int"},
	})

	out := buf.String()
	assert.Contains(t, out, "cleaned: 394 行, 2 列")
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "division")
	assert.Contains(t, out, "390")
}

func TestPrintValues(t *testing.T) {
	var buf bytes.Buffer
	PrintValues(&buf, "gender", []processor.ValueCount{{Value: "M", Count: 2}, {Value: "X", Count: 7}})
	assert.Contains(t, buf.String(), "gender = [M, X]")
	assert.Contains(t, buf.String(), "7")
}

func TestPrintDescribe(t *testing.T) {
	var buf bytes.Buffer
	PrintDescribe(&buf, "gender", "overallscore", []processor.GroupSummary{
		{Group: "0", Count: 1, Valid: 1, Mean: 300, Std: math.NaN(), Min: 300, Q25: 300, Q50: 300, Q75: 300, Max: 300},
	})
	out := buf.String()
	assert.Contains(t, out, "overallscore by gender")
	assert.Contains(t, out, "300.000000")
	assert.Contains(t, out, "NaN")
}

func TestPrintCorrelation(t *testing.T) {
	var buf bytes.Buffer
	corr := &processor.CorrMatrix{
		Names:  []string{"age", "overallscore"},
		Values: mat.NewSymDense(2, []float64{1, 0.25, 0.25, 1}),
	}
	PrintCorrelation(&buf, corr)
	out := buf.String()
	assert.Contains(t, out, "0.250000")
	assert.Contains(t, out, "1.000000")
}
