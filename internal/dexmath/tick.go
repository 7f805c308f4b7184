package dexmath

import "math/big"

// MinTick and MaxTick bound the usable tick range. 886800 is the protocol
// bound and is a multiple of every supported tick spacing.
const (
	MinTick int32 = -886_800
	MaxTick int32 = 886_800
)

// MinSqrtPriceX96 and MaxSqrtPriceX96 are the sqrt prices at the tick
// bounds, derived once at init so they can never drift from the tick math.
var (
	MinSqrtPriceX96 *big.Int
	MaxSqrtPriceX96 *big.Int
)

// tickRatios[i] is sqrt(1.0001)^-(2^(i+1)) in Q128, the per-bit factors of
// the fixed-point exponentiation used on chain.
var tickRatios []*big.Int

var (
	firstRatio *big.Int // sqrt(1.0001)^-1 in Q128
	q128       *big.Int
	maxUint256 *big.Int
	lowBits32  *big.Int
)

func init() {
	hexes := []string{
		"fff97272373d413259a46990580e213a",
		"fff2e50f5f656932ef12357cf3c7fdcc",
		"ffe5caca7e10e4e61c3624eaa0941cd0",
		"ffcb9843d60f6159c9db58835c926644",
		"ff973b41fa98c081472e6896dfb254c0",
		"ff2ea16466c96a3843ec78b326b52861",
		"fe5dee046a99a2a811c461f1969c3053",
		"fcbe86c7900a88aedcffc83b479aa3a4",
		"f987a7253ac413176f2b074cf7815e54",
		"f3392b0822b70005940c7a398e4b70f3",
		"e7159475a2c29b7443b29c7fa6e889d9",
		"d097f3bdfd2022b8845ad8f792aa5825",
		"a9f746462d870fdf8a65dc1f90e061e5",
		"70d869a156d2a1b890bb3df62baf32f7",
		"31be135f97d08fd981231505542fcfa6",
		"9aa508b5b7a84e1c677de54f3e99bc9",
		"5d6af8dedb81196699c329225ee604",
		"2216e584f5fa1ea926041bedfe98",
		"48a170391f7dc42444e8fa2",
	}
	tickRatios = make([]*big.Int, len(hexes))
	for i, h := range hexes {
		tickRatios[i], _ = new(big.Int).SetString(h, 16)
	}
	firstRatio, _ = new(big.Int).SetString("fffcb933bd6fad37aa2d162d1a594001", 16)
	q128 = new(big.Int).Lsh(big.NewInt(1), 128)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	lowBits32 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(1))

	MinSqrtPriceX96 = mustSqrtPriceAtTick(MinTick)
	MaxSqrtPriceX96 = mustSqrtPriceAtTick(MaxTick)
}

func mustSqrtPriceAtTick(tick int32) *big.Int {
	price, err := SqrtPriceAtTick(tick)
	if err != nil {
		panic(err)
	}
	return price
}

// SqrtPriceAtTick returns sqrt(1.0001^tick) in Q64.96, computed with the
// same fixed-point exponentiation and final rounding the pool contract
// uses, so results agree bit for bit.
func SqrtPriceAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int).Set(q128)
	if absTick&1 != 0 {
		ratio.Set(firstRatio)
	}
	for i, factor := range tickRatios {
		if absTick&(1<<uint(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Quo(maxUint256, ratio)
	}

	// Q128 -> Q96, rounding up so the inverse stays floor-consistent.
	rem := new(big.Int).And(ratio, lowBits32)
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, one)
	}
	return ratio, nil
}

// TickAtSqrtPrice returns the greatest tick whose sqrt price is at most
// sqrtPriceX96, the floor inverse of SqrtPriceAtTick.
func TickAtSqrtPrice(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtPriceX96) < 0 || sqrtPriceX96.Cmp(MaxSqrtPriceX96) > 0 {
		return 0, ErrPriceOutOfRange
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		// Bias the midpoint up so the loop converges onto the floor.
		mid := lo + (hi-lo+1)/2
		price, err := SqrtPriceAtTick(mid)
		if err != nil {
			return 0, err
		}
		if price.Cmp(sqrtPriceX96) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
