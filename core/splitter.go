package core

// Fold 是一次交叉验证划分：训练/测试两组互斥的行下标。
type Fold struct {
	Train []int
	Test  []int
}

// Splitter 是交叉验证划分器的领域接口。
//
// 约定：
//   - 所有 Fold 的 Test 集互斥，且并集覆盖全部行下标
//   - 固定 seed 时结果确定
//
// 实现：
//   - split.KFold
//   - split.StratifiedKFold（按 y 的类别分布分层）
type Splitter interface {
	// Split 根据目标向量 y 生成折；y 的长度即样本行数。
	Split(y []float64) ([]Fold, error)
}
