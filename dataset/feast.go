package dataset

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/feast"
	"github.com/rushteam/tunekit/pkg/conv"
)

// FeastLoader 用 Feast 在线特征库按实体批量拉取特征，拼成训练矩阵。
// 目标向量由调用方提供（与 EntityRows 对齐），特征库只负责特征部分。
type FeastLoader struct {
	Client feast.Client

	// Features 要拉取的特征引用（feature_view:feature_name）
	Features []string

	// Project 可选的项目名覆盖
	Project string

	// BatchSize 每次请求的实体行数，<= 0 时单次请求全部
	BatchSize int
}

// Load 按实体行拉取特征并与目标向量组装成 Dataset。
// 缺失的数值特征记为 NaN；非数值特征被跳过。
func (l *FeastLoader) Load(ctx context.Context, entityRows []map[string]any, target []float64) (*core.Dataset, error) {
	if l.Client == nil {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"dataset: feast client is nil")
	}
	if target != nil && len(target) != len(entityRows) {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dataset: %d entity rows but %d targets", len(entityRows), len(target)))
	}

	batch := l.BatchSize
	if batch <= 0 {
		batch = len(entityRows)
	}

	features := make([]map[string]float64, 0, len(entityRows))
	for start := 0; start < len(entityRows); start += batch {
		end := start + batch
		if end > len(entityRows) {
			end = len(entityRows)
		}

		resp, err := l.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
			Features:   l.Features,
			EntityRows: entityRows[start:end],
			Project:    l.Project,
		})
		if err != nil {
			return nil, fmt.Errorf("feast load [%d:%d]: %w", start, end, err)
		}

		for _, fv := range resp.FeatureVectors {
			row := make(map[string]float64, len(l.Features))
			for _, ref := range l.Features {
				val, ok := fv.Values[ref]
				if !ok {
					row[ref] = math.NaN()
					continue
				}
				if f, ok := conv.ToFloat64(val); ok {
					row[ref] = f
				}
			}
			features = append(features, row)
		}
	}

	return core.NewDataset(features, target), nil
}
