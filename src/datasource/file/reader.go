// reader.go
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrFileNotFound 数据文件不存在
	ErrFileNotFound = errors.New("data file not found")
	// ErrParse 数据文件格式错误
	ErrParse = errors.New("data file malformed")
)

// 视为缺失值的单元格内容
var naValues = []string{"", "NA", "NaN", "<nil>"}

// ReadToDataFrame 按扩展名读取数据文件，保留全部原始列
func ReadToDataFrame(filePath, sheetName, encodingName string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		return ReadCSV(filePath, encodingName)
	case ".xlsx":
		return ReadXLSX(filePath, sheetName)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: 不支持的文件类型 %s", ErrParse, filePath)
	}
}

// ReadCSV 读取逗号分隔文件
func ReadCSV(filePath, encodingName string) (dataframe.DataFrame, error) {
	f, err := openDataFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	reader, err := decodeReader(f, encodingName)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.ReadCSV(reader,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, filePath, df.Err)
	}
	return df, nil
}

func openDataFile(filePath string) (*os.File, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}
	return f, nil
}

// decodeReader 把非 UTF-8 的文本转成 UTF-8
func decodeReader(r io.Reader, encodingName string) (io.Reader, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		// 去掉 Excel 导出时带的 BOM
		return unicode.UTF8BOM, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	default:
		return nil, fmt.Errorf("%w: 未知编码 %q", ErrParse, name)
	}
}

// ReadXLSX 读取 xlsx 工作表；sheetName 为空时取第一个工作表
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: xlsx open file: %v", ErrParse, err)
	}

	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: excel文件中没有工作表", ErrParse)
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("%w: 工作表 %q 不存在", ErrParse, sheetName)
		}
		sheet = s
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame，第一行是标题行
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 工作表 %s 没有数据行", ErrParse, sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)

	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		record := make([]string, len(headers))
		for i, cell := range row.Cells {
			if i < len(headers) { // 确保不超出列数范围
				record[i] = cell.String()
			}
		}
		records = append(records, record)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %v", ErrParse, df.Err)
	}
	return df, nil
}
