package core

// Dataset 是贯穿整个 Pipeline 的统一数据承载结构。
// Features 按行组织（每行一个样本），Target 与 Features 按下标对齐；
// Extra 存放随数据透传的附属表（如原始读数、实体元信息），
// 由 preprocessing 阶段消费或补充，框架本身不解释其内容。
type Dataset struct {
	Features []map[string]float64
	Target   []float64

	// Predictions 由估计器 Block 在 Produce 时写入，
	// Pipeline.Predict 最终返回的就是它。
	Predictions []float64

	// Extra 附属上下文表，Subset 时直接共享（不按行切分）。
	Extra map[string]any
}

func NewDataset(features []map[string]float64, target []float64) *Dataset {
	return &Dataset{
		Features: features,
		Target:   target,
		Extra:    make(map[string]any),
	}
}

// Len 返回样本行数。
func (ds *Dataset) Len() int {
	return len(ds.Features)
}

// Subset 按下标列表切出子集（交叉验证分折用）。
// Features/Target 按行取引用，Extra 原样共享。
func (ds *Dataset) Subset(indexes []int) *Dataset {
	sub := &Dataset{
		Features: make([]map[string]float64, 0, len(indexes)),
		Extra:    ds.Extra,
	}
	if ds.Target != nil {
		sub.Target = make([]float64, 0, len(indexes))
	}
	for _, i := range indexes {
		sub.Features = append(sub.Features, ds.Features[i])
		if ds.Target != nil {
			sub.Target = append(sub.Target, ds.Target[i])
		}
	}
	return sub
}

// Clone 深拷贝 Features 行（map 逐键复制），供会就地改写特征的 Block 使用。
// Extra 仍然共享：附属表由 preprocessing 整体替换而非逐行修改。
func (ds *Dataset) Clone() *Dataset {
	out := &Dataset{Extra: ds.Extra}
	if ds.Features != nil {
		out.Features = make([]map[string]float64, len(ds.Features))
		for i, row := range ds.Features {
			cp := make(map[string]float64, len(row))
			for k, v := range row {
				cp[k] = v
			}
			out.Features[i] = cp
		}
	}
	if ds.Target != nil {
		out.Target = append([]float64(nil), ds.Target...)
	}
	if ds.Predictions != nil {
		out.Predictions = append([]float64(nil), ds.Predictions...)
	}
	return out
}

// FeatureNames 返回首行出现的全部特征名（无序）。
func (ds *Dataset) FeatureNames() []string {
	if len(ds.Features) == 0 {
		return nil
	}
	names := make([]string, 0, len(ds.Features[0]))
	for k := range ds.Features[0] {
		names = append(names, k)
	}
	return names
}
