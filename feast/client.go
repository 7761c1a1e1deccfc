// Package feast 提供 Feast Feature Store 的客户端抽象，
// 供 dataset 包从在线特征库拼装训练矩阵。
package feast

import "context"

// Client 是 Feast Feature Store 的客户端接口。
//
// Feast 是一个开源的 Feature Store；调参任务用它按实体批量拉取
// 特征值，拼成 core.Dataset 后进入交叉验证流程。
//
// 实现：
//   - GrpcClient（基于官方 Go SDK）
//   - 也可以自行实现此接口（如 HTTP Feature Server）
type Client interface {
	// GetOnlineFeatures 按实体行批量获取特征。
	//
	// 参数：
	//   - Features: 特征引用列表，如 ["driver_hourly_stats:conv_rate"]
	//   - EntityRows: 实体行，如 [{"driver_id": 1001}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征引用列表（feature_view:feature_name）
	Features []string

	// EntityRows 实体行，每行是 实体键 -> 实体值
	EntityRows []map[string]any

	// Project 项目名称，为空时使用客户端默认值
	Project string
}

// FeatureVector 是单个实体行对应的特征值。
type FeatureVector struct {
	// Values 特征引用 -> 特征值（数值特征统一为 float64）
	Values map[string]any

	// EntityRow 原始实体行
	EntityRow map[string]any
}

// GetOnlineFeaturesResponse 获取在线特征响应，与请求的实体行一一对应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}
