// The PCG algorithm is designed by Melissa O'Neill.
// The multiply-shift bounding in below64 follows Lemire's method as used
// by the Go standard library (math/rand/v2, BSD 3-Clause License).

package core

import (
	"encoding/binary"
	"math/bits"
	r2 "math/rand/v2"

	"github.com/zintix-labs/moneycart/errs"
)

const (
	pcg64StateLen  = 16
	pcg64SeedMix   = 0x9e3779b97f4a7c15
	pcg64StreamMix = 0xDA942042E4DD58B5
	pcg64FloatUnit = 1.0 / (1 << 53)
)

// PCG64 為 128-bit 狀態的 PCG-DXSM 產生器，Core 預設使用。
type PCG64 struct {
	rng *r2.PCG
}

// newPCG64WithSeed 以 splitmix64 把單一 seed 展開成 hi/lo 兩半狀態。
func newPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ pcg64SeedMix
	return &PCG64{rng: r2.NewPCG(splitmix64(x), splitmix64(x^pcg64StreamMix))}
}

// Uint64 回傳完整 64-bit 亂數
func (r *PCG64) Uint64() uint64 { return r.rng.Uint64() }

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *PCG64) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.below64(uint64(max)))
}

// IntN 回傳 [0,n) 的亂數；若 n <= 0 回傳 -1。
func (r *PCG64) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(r.below64(uint64(max)))
}

// Float64 回傳 [0,1) 的浮點亂數（53-bit 精度）。
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()>>11) * pcg64FloatUnit
}

// Snapshot 以 big-endian 輸出 hi|lo 共 16 bytes，格式與 PCG32 一致。
func (r *PCG64) Snapshot() ([]byte, error) {
	raw, err := r.rng.MarshalBinary()
	if err != nil {
		return nil, errs.WrapAs(errs.Warn, err, "pcg64 snapshot")
	}
	// MarshalBinary = "pcg:" + hi + lo
	if len(raw) < pcg64StateLen {
		return nil, errs.Warnf("pcg64 snapshot: unexpected state length %d", len(raw))
	}
	b := make([]byte, pcg64StateLen)
	copy(b, raw[len(raw)-pcg64StateLen:])
	return b, nil
}

// Restore 還原 Snapshot 的輸出。
func (r *PCG64) Restore(data []byte) error {
	if len(data) != pcg64StateLen {
		return errs.Warnf("pcg64 restore: want %d bytes, got %d", pcg64StateLen, len(data))
	}
	r.rng.Seed(binary.BigEndian.Uint64(data[:8]), binary.BigEndian.Uint64(data[8:]))
	return nil
}

// splitmix64 將輸入值混洗成新的 64-bit 狀態。
func splitmix64(x uint64) uint64 {
	x += pcg64SeedMix
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// below64 回傳 [0,bound) 的無偏亂數。
func (r *PCG64) below64(bound uint64) uint64 {
	if bound&(bound-1) == 0 {
		return r.Uint64() & (bound - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), bound)
	if lo >= bound {
		return hi
	}
	threshold := -bound % bound
	for lo < threshold {
		hi, lo = bits.Mul64(r.Uint64(), bound)
	}
	return hi
}
