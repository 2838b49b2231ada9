package stakehub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erisprotocol/alliancehub/internal/stakehub/events"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/reward"
)

// Harvest withdraws rewards from validators (all whitelisted
// validators when validators is empty) and enqueues the
// HalfSwapReward -> ProvideLiquidity -> CheckReceivedCoin -> Reinvest
// callback chain (spec.md §6 "Harvest { validators?, withdrawals?,
// stages? }", §4.I). withdrawals and stages belong to the external
// swap pipeline and are permanently rejected by this core
// (ErrNotSupported) — see DESIGN.md's Open Question resolution.
func (h *Hub) Harvest(ctx context.Context, sender string, validators []string, withdrawalsRequested, stagesRequested bool) ([]hubtypes.Msg, events.Event, error) {
	if withdrawalsRequested || stagesRequested {
		return nil, events.Event{}, hubtypes.ErrNotSupported
	}

	cfg, _, err := h.Store.Config()
	if err != nil {
		return nil, events.Event{}, err
	}
	if err := cfg.AssertOwnerOrOperator(sender); err != nil {
		return nil, events.Event{}, err
	}

	targets := validators
	if len(targets) == 0 {
		targets, err = h.whitelist(ctx)
		if err != nil {
			return nil, events.Event{}, err
		}
	}

	msgs := make([]hubtypes.Msg, 0, len(targets)+1)
	for _, v := range targets {
		msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgWithdrawRewards, Validator: v})
	}
	msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgSelfCallback, Callback: hubtypes.CallbackHalfSwapReward})

	evt := events.New("erishub/harvest").
		With("sender", sender).
		With("validators", fmt.Sprint(len(targets)))

	h.Metrics.MarkTransition("harvest")
	h.Logger.Info("harvest", zap.Int("validators", len(targets)))
	return msgs, evt, nil
}

// Callback dispatches one self-invocation of the harvest chain
// (spec.md §6 "Callback(_) — self-invocation only", §5 "every callback
// re-reads its inputs"). Rejected if sender isn't the hub's own
// address.
//
// HalfSwapReward and ProvideLiquidity are phases of the external swap
// and LP-provisioning sidecar (spec.md §1 Out of scope); this core has
// no interface modeling a swap router or an LP pool, so those two
// phases are pass-throughs that only advance the chain to the next
// callback. CheckReceivedCoin is the point where funds that arrived
// from that (out-of-scope) sidecar would be folded into unlocked_coins;
// here it folds in whatever the bank module currently reports for the
// utoken and stake denoms, then advances to Reinvest, which is fully
// implemented. CallbackSubmitBatch, enqueued by QueueUnbond's
// early-submission escape, runs SubmitBatch with the computed split.
func (h *Hub) Callback(ctx context.Context, sender string, cb hubtypes.Callback, now int64) ([]hubtypes.Msg, events.Event, error) {
	if sender != h.SelfAddress {
		return nil, events.Event{}, hubtypes.ErrForeignCallback
	}

	switch cb {
	case hubtypes.CallbackHalfSwapReward:
		msgs := []hubtypes.Msg{{Kind: hubtypes.MsgSelfCallback, Callback: hubtypes.CallbackProvideLiquidity}}
		return msgs, events.New("erishub/callback").With("stage", "half_swap_reward"), nil

	case hubtypes.CallbackProvideLiquidity:
		msgs := []hubtypes.Msg{{Kind: hubtypes.MsgSelfCallback, Callback: hubtypes.CallbackCheckReceivedCoin}}
		return msgs, events.New("erishub/callback").With("stage", "provide_liquidity"), nil

	case hubtypes.CallbackCheckReceivedCoin:
		if err := h.foldBankBalancesIntoUnlocked(ctx); err != nil {
			return nil, events.Event{}, err
		}
		msgs := []hubtypes.Msg{{Kind: hubtypes.MsgSelfCallback, Callback: hubtypes.CallbackReinvest}}
		return msgs, events.New("erishub/callback").With("stage", "check_received_coin"), nil

	case hubtypes.CallbackReinvest:
		return h.reinvest(ctx, now, false)

	case hubtypes.CallbackSubmitBatch:
		return h.SubmitBatch(ctx, sender, now, nil)

	default:
		return nil, events.Event{}, fmt.Errorf("stakehub: unknown callback %d", cb)
	}
}

func (h *Hub) foldBankBalancesIntoUnlocked(ctx context.Context) error {
	st, _, err := h.Store.StakeToken()
	if err != nil {
		return err
	}
	unlocked, _, err := h.Store.UnlockedCoins()
	if err != nil {
		return err
	}

	for _, denom := range []string{st.UtokenDenom, st.StakeDenom} {
		balance, err := h.Bank.Balance(ctx, denom)
		if err != nil {
			return fmt.Errorf("stakehub: querying bank balance for %s: %w", denom, err)
		}
		unlocked[denom] = balance
	}
	return h.Store.SaveUnlockedCoins(unlocked)
}

// reinvest implements spec.md §4.I's reinvest(skip_fee) algorithm,
// supplemented by the optional reward-pool sidecar split (spec.md
// §4.N): for denoms listed in Config.RewardDenoms, the harvested
// amount is split between the pool's current emission share and a
// remainder sent to the protocol fee contract, rather than reinvested
// through the utoken/stake_denom paths below (this core has no LP or
// swap interface to do anything else with an arbitrary farm-reward
// denom).
func (h *Hub) reinvest(ctx context.Context, now int64, skipFee bool) ([]hubtypes.Msg, events.Event, error) {
	ts, err := h.loadTxState()
	if err != nil {
		return nil, events.Event{}, err
	}
	unlocked, _, err := h.Store.UnlockedCoins()
	if err != nil {
		return nil, events.Event{}, err
	}

	whitelist, err := h.whitelist(ctx)
	if err != nil {
		return nil, events.Event{}, err
	}

	var msgs []hubtypes.Msg
	var utokenReinvested, ustakeBurned uint64
	rewardDenoms := make(map[string]struct{}, len(ts.config.RewardDenoms))
	for _, d := range ts.config.RewardDenoms {
		rewardDenoms[d] = struct{}{}
	}

	for denom, amount := range unlocked {
		if amount == 0 {
			continue
		}
		switch {
		case denom == ts.token.UtokenDenom:
			fee := feeCut(amount, ts.config.FeeConfig.ProtocolRewardFeeBps, skipFee)
			remainder := amount - fee
			target, terr := h.pickBondTarget(ctx, ts.config, whitelist, ts.ledger.ToMap(), ts.token.TotalUtokenBonded, remainder)
			if terr != nil {
				return nil, events.Event{}, terr
			}
			ts.ledger = ts.ledger.Delegate(ledger.Delegation{Validator: target, Amount: remainder})
			ts.token.TotalUtokenBonded += remainder
			utokenReinvested += remainder
			msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgDelegate, Validator: target, Amount: remainder})
			if fee > 0 {
				msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgBankSend, Denom: denom, Amount: fee, To: ts.config.FeeConfig.ProtocolFeeContract})
			}
			delete(unlocked, denom)

		case denom == ts.token.StakeDenom:
			fee := feeCut(amount, ts.config.FeeConfig.ProtocolRewardFeeBps, skipFee)
			remainder := amount - fee
			ts.token.TotalSupply -= remainder
			ustakeBurned += remainder
			msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgBurn, Denom: denom, Amount: remainder})
			if fee > 0 {
				msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgBankSend, Denom: denom, Amount: fee, To: ts.config.FeeConfig.ProtocolFeeContract})
			}
			delete(unlocked, denom)

		case isRewardDenom(rewardDenoms, denom):
			fromPool, remainder := reward.Split(amount, ts.config.RewardSchedule.CurrentShareBps(now))
			if remainder > 0 {
				msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgBankSend, Denom: denom, Amount: remainder, To: ts.config.FeeConfig.ProtocolFeeContract})
			}
			_ = fromPool // pool top-up stays credited in place; no separate pool ledger in this core
			delete(unlocked, denom)

		default:
			// left for a later callback cycle, matching spec.md's
			// "rewards reconciled in a later callback cycle" note.
		}
	}

	if utokenReinvested == 0 && ustakeBurned == 0 {
		return nil, events.Event{}, hubtypes.ErrNoTokensToReinvest
	}

	if err := h.Store.SaveUnlockedCoins(unlocked); err != nil {
		return nil, events.Event{}, err
	}
	if err := h.commitTxState(ts); err != nil {
		return nil, events.Event{}, err
	}
	if err := h.Store.RecordExchangeRate(now, ts.token.TotalUtokenBonded, ts.token.TotalSupply); err != nil {
		return nil, events.Event{}, err
	}

	evt := events.New("erishub/reinvest").
		With("utoken_reinvested", fmt.Sprint(utokenReinvested)).
		With("ustake_burned", fmt.Sprint(ustakeBurned))

	h.Metrics.SetTotals(ts.token.TotalUtokenBonded, ts.token.TotalSupply)
	h.Metrics.MarkTransition("reinvest")
	h.Logger.Info("reinvest", zap.Uint64("utoken_reinvested", utokenReinvested), zap.Uint64("ustake_burned", ustakeBurned))
	return msgs, evt, nil
}

func isRewardDenom(set map[string]struct{}, denom string) bool {
	_, ok := set[denom]
	return ok
}

func feeCut(amount, feeBps uint64, skipFee bool) uint64 {
	if skipFee || feeBps == 0 {
		return 0
	}
	return mulDivFloor(amount, feeBps, 10_000)
}
