package utils

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// IsNumeric 判断列是否为数值类型
func IsNumeric(s series.Series) bool {
	t := s.Type()
	return t == series.Int || t == series.Float
}

// FiniteValues 返回列中非缺失的数值，顺序不变
func FiniteValues(s series.Series) []float64 {
	values := make([]float64, 0, s.Len())
	for _, v := range s.Float() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// SortKeys 排序分组键：全部可解析为数字时按数值排序，否则按字典序
func SortKeys(keys []string) {
	nums := make(map[string]float64, len(keys))
	numeric := true
	for _, k := range keys {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[k] = f
	}

	if numeric {
		sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
		return
	}
	sort.Strings(keys)
}
