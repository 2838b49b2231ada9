// Package reward implements the optional protocol-owned reward-pool
// sidecar (spec.md §4.N expansion): a diminishing-emission schedule and
// a harvested-amount split, grounded on the teacher's
// vms/platformvm/reward.Calculator/Split. original_source only models
// reinvesting already-harvested coins; it has no concept of a
// protocol-owned pool with its own emission curve, so this package is
// purely additive: reinvest consults it only for coins whose denom is
// listed in Config.RewardDenoms.
package reward

import (
	"math/big"
)

// PercentDenominator mirrors the teacher's reward.PercentDenominator:
// the magnitude used to emulate fractional shares with big.Int math.
const PercentDenominator = 1_000_000

var percentDenominatorBig = new(big.Int).SetUint64(PercentDenominator)

// Schedule is a linear diminishing-emission curve between (StartTime,
// StartShareBps) and (TargetTime, TargetShareBps), the same shape as
// the teacher's getRemainingTimeBoundsPercentage/getReward pair, scaled
// down from the teacher's validator-reward-share domain to this
// module's protocol-reward-pool domain.
type Schedule struct {
	StartTime      int64
	StartShareBps  uint64
	TargetTime     int64
	TargetShareBps uint64
}

// CurrentShareBps returns the schedule's reward share (in bps of
// PercentDenominator) at currentTime: StartShareBps before StartTime,
// TargetShareBps at or after TargetTime, and a linear interpolation in
// between.
func (s Schedule) CurrentShareBps(currentTime int64) uint64 {
	if currentTime <= s.StartTime {
		return s.StartShareBps
	}
	if currentTime >= s.TargetTime {
		return s.TargetShareBps
	}

	maxElapsed := s.TargetTime - s.StartTime
	elapsed := currentTime - s.StartTime

	var lower, upper uint64
	var elapsedRatio *big.Int // remaining fraction, in PercentDenominator units
	if s.TargetShareBps >= s.StartShareBps {
		lower, upper = s.StartShareBps, s.TargetShareBps
	} else {
		lower, upper = s.TargetShareBps, s.StartShareBps
	}

	elapsedRatio = new(big.Int).SetInt64(elapsed)
	elapsedRatio.Mul(elapsedRatio, percentDenominatorBig)
	elapsedRatio.Div(elapsedRatio, big.NewInt(maxElapsed))

	diminishing := new(big.Int).SetUint64(upper - lower)
	step := new(big.Int).Mul(diminishing, elapsedRatio)
	step.Div(step, percentDenominatorBig)

	var result *big.Int
	if s.TargetShareBps >= s.StartShareBps {
		result = new(big.Int).Add(new(big.Int).SetUint64(lower), step)
	} else {
		result = new(big.Int).Sub(new(big.Int).SetUint64(upper), step)
	}
	if !result.IsUint64() {
		return upper
	}
	return result.Uint64()
}

// Split divides totalAmount into (amountFromPool, remainder) where
// remainder = floor(totalAmount * (PercentDenominator - shareBps) /
// PercentDenominator) and amountFromPool = totalAmount - remainder, so
// the rounding dust lands in amountFromPool. This matches the teacher's
// reward.Split shape: the remainder is computed directly and the pool
// amount is derived from it by subtraction.
//
// shareBps is expressed in PercentDenominator units (out of 1_000_000,
// not 10_000), matching the teacher's reward.Config.RewardShare scale,
// since this sidecar tracks a finer-grained emission curve than the
// strategy package's basis points.
func Split(totalAmount uint64, shareBps uint64) (amountFromPool, remainder uint64) {
	if shareBps > PercentDenominator {
		shareBps = PercentDenominator
	}
	remainderShare := PercentDenominator - shareBps

	total := new(big.Int).SetUint64(totalAmount)
	rem := new(big.Int).Mul(total, new(big.Int).SetUint64(remainderShare))
	rem.Div(rem, percentDenominatorBig)

	remainderAmount := rem.Uint64()
	return totalAmount - remainderAmount, remainderAmount
}
