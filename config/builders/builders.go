// Package builders 在 init 中注册内置原语的构建器。
// 通过 import _ "github.com/rushteam/tunekit/config/builders" 启用模板驱动。
package builders

import (
	"github.com/rushteam/tunekit/config"
	"github.com/rushteam/tunekit/pipeline"
	"github.com/rushteam/tunekit/pkg/conv"
	"github.com/rushteam/tunekit/primitive"
)

func init() {
	config.Register("imputer", BuildImputer)
	config.Register("scaler", BuildScaler)
	config.Register("selector", BuildSelector)
	config.Register("logistic", BuildLogistic)
}

func BuildImputer(cfg map[string]any) (pipeline.Block, error) {
	fill := conv.ConfigGetFloat64(cfg, "fill_value", 0)
	return primitive.NewImputer(fill), nil
}

func BuildScaler(cfg map[string]any) (pipeline.Block, error) {
	return primitive.NewScaler(), nil
}

func BuildSelector(cfg map[string]any) (pipeline.Block, error) {
	k := conv.ConfigGetInt(cfg, "k", 0)
	return primitive.NewSelector(k), nil
}

func BuildLogistic(cfg map[string]any) (pipeline.Block, error) {
	lr := conv.ConfigGetFloat64(cfg, "learning_rate", 0.1)
	epochs := conv.ConfigGetInt(cfg, "epochs", 50)
	l2 := conv.ConfigGetFloat64(cfg, "l2", 0)
	return primitive.NewLogistic(lr, epochs, l2), nil
}
