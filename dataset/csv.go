// Package dataset 负责把外部数据源拼装成 core.Dataset。
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/rushteam/tunekit/core"
)

// LoadCSV 从带表头的 CSV 文件加载数据集。
// targetColumn 列作为目标向量，其余列作为特征；
// 空值或无法解析的单元格记为 NaN，交给 imputer 等原语处理。
func LoadCSV(path, targetColumn string) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"dataset: csv needs a header and at least one row")
	}

	header := records[0]
	targetIdx := -1
	for i, name := range header {
		if name == targetColumn {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeNotFound,
			fmt.Sprintf("dataset: target column %q not found", targetColumn))
	}

	rows := records[1:]
	features := make([]map[string]float64, 0, len(rows))
	target := make([]float64, 0, len(rows))
	for lineNo, record := range rows {
		row := make(map[string]float64, len(header)-1)
		for i, cell := range record {
			v := parseCell(cell)
			if i == targetIdx {
				if math.IsNaN(v) {
					return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
						fmt.Sprintf("dataset: row %d: target %q is not numeric", lineNo+2, cell))
				}
				target = append(target, v)
				continue
			}
			row[header[i]] = v
		}
		features = append(features, row)
	}

	return core.NewDataset(features, target), nil
}

func parseCell(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
