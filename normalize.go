package aoilib

import "math"

// 数值规整：声明的nodata值及±Inf统一替换为NaN哨兵，NaN原样保留
func NormalizeValues(data []float64, nodata *float64) {
	for i, v := range data {
		if (nodata != nil && v == *nodata) || math.IsInf(v, 0) {
			data[i] = math.NaN()
		}
	}
}

// 规整逆操作：落盘前将NaN哨兵还原为声明的nodata值；未声明时不做改动，
// 由浮点数据格式自身承载NaN
func RestoreNodata(data []float64, nodata *float64) {
	if nodata == nil {
		return
	}
	for i, v := range data {
		if math.IsNaN(v) {
			data[i] = *nodata
		}
	}
}

// 过滤出有效（非哨兵）样本
func collectValid(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	return valid
}
