package stats

const (
	maxLutMult int = 2000
	maxMult    int = 10000
)

// WinBuckets
//
// 用來快速定位回合贏倍 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - 贏倍區間: [0,0], (0,1), [1,2), [2,5), ..., [2000,10000), [10000, +inf)
//
// Money Cart 的值本身就是 base bet 的倍數，所以只有一種 bucket，不需要依投注單位建表。
type WinBuckets struct {
	winBucket    []int
	winBucketStr []string
	lut          []int
	justOverIdx  int
	maxIdx       int
}

// Buckets 預設贏倍分桶
var Buckets *WinBuckets = newWinBuckets(
	[]int{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	[]string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
)

func newWinBuckets(bounds []int, labels []string) *WinBuckets {
	// 建立LUT反查表 lut[mult] = idx，只建到 2000 倍
	lut := make([]int, maxLutMult)
	idx := 1
	last := len(bounds) - 1
	lut[0] = 0
	for i := 1; i < maxLutMult; i++ {
		for idx < last && i >= bounds[idx] {
			idx++
		}
		lut[i] = idx
	}
	return &WinBuckets{
		winBucket:    bounds,
		winBucketStr: labels,
		lut:          lut,
		justOverIdx:  len(bounds) - 1,
		maxIdx:       len(bounds),
	}
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.winBucketStr
}

func (b *WinBuckets) Len() int {
	return len(b.winBucketStr)
}

// Index 回傳贏倍所屬分桶；負值視為 0。
func (b *WinBuckets) Index(mult int64) int {
	if mult <= 0 {
		return 0
	}
	if mult >= int64(maxLutMult) {
		if mult >= int64(maxMult) {
			return b.maxIdx
		}
		return b.justOverIdx
	}
	return b.lut[mult]
}
