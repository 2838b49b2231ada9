package stakehub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erisprotocol/alliancehub/internal/stakehub/batch"
	"github.com/erisprotocol/alliancehub/internal/stakehub/events"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
	"github.com/erisprotocol/alliancehub/internal/stakehub/slashing"
)

// QueueUnbond records a share-redemption intent against the
// accumulating pending batch (spec.md §6 "QueueUnbond { receiver? }",
// §4.C state 1). now is used only to decide the early-submission
// escape.
func (h *Hub) QueueUnbond(ctx context.Context, sender, receiver string, shares uint64, now int64) ([]hubtypes.Msg, events.Event, error) {
	if shares == 0 {
		return nil, events.Event{}, hubtypes.ErrZeroAmount
	}
	who := receiverOr(receiver, sender)

	pending, _, err := h.Store.PendingBatch()
	if err != nil {
		return nil, events.Event{}, err
	}

	var existing *batch.UnbondRequest
	if req, ok, err := h.Store.UnbondRequest(pending.ID, who); err != nil {
		return nil, events.Event{}, err
	} else if ok {
		existing = &req
	}

	nextPending, req := batch.QueueUnbond(pending, existing, who, shares)

	if err := h.Store.SavePendingBatch(nextPending); err != nil {
		return nil, events.Event{}, err
	}
	if err := h.Store.SaveUnbondRequest(req); err != nil {
		return nil, events.Event{}, err
	}

	var msgs []hubtypes.Msg
	if batch.NeedsImmediateSubmit(nextPending, now) {
		msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgSelfCallback, Callback: hubtypes.CallbackSubmitBatch})
	}

	evt := events.New("erishub/queue_unbond").
		With("sender", sender).
		With("receiver", who).
		With("batch_id", fmt.Sprint(nextPending.ID)).
		With("ustake_amount", fmt.Sprint(shares))

	h.Metrics.MarkTransition("queue_unbond")
	h.Logger.Info("queue_unbond", zap.String("receiver", who), zap.Uint64("shares", shares))
	return msgs, evt, nil
}

// WithdrawUnbonded pays out every mature, reconciled request of
// sender (spec.md §6 "WithdrawUnbonded { receiver? }", §4.C states
// 4/5).
func (h *Hub) WithdrawUnbonded(ctx context.Context, sender, receiver string, now int64) ([]hubtypes.Msg, events.Event, error) {
	to := receiverOr(receiver, sender)

	reqs, err := h.Store.UnbondRequestsByUser(sender)
	if err != nil {
		return nil, events.Event{}, err
	}

	var total uint64
	var batchIDs []string
	for _, req := range reqs {
		b, ok, err := h.Store.PreviousBatch(req.BatchID)
		if err != nil {
			return nil, events.Event{}, err
		}
		if !ok {
			continue
		}
		result, applied := batch.Withdraw(b, req, now)
		if !applied {
			continue
		}

		if err := h.Store.DeleteUnbondRequest(req.BatchID, sender); err != nil {
			return nil, events.Event{}, err
		}
		if result.BatchDeleted {
			if err := h.Store.DeletePreviousBatch(req.BatchID); err != nil {
				return nil, events.Event{}, err
			}
		} else if err := h.Store.SavePreviousBatch(result.UpdatedBatch); err != nil {
			return nil, events.Event{}, err
		}

		total += result.UtokenRefund
		batchIDs = append(batchIDs, fmt.Sprint(req.BatchID))
	}

	if total == 0 {
		return nil, events.Event{}, hubtypes.ErrNoWithdrawable
	}

	st, _, err := h.Store.StakeToken()
	if err != nil {
		return nil, events.Event{}, err
	}

	msgs := []hubtypes.Msg{{Kind: hubtypes.MsgBankSend, Denom: st.UtokenDenom, Amount: total, To: to}}
	evt := events.New("erishub/withdraw_unbonded").
		With("sender", sender).
		With("receiver", to).
		With("utoken_amount", fmt.Sprint(total))

	h.Metrics.MarkTransition("withdraw_unbonded")
	h.Logger.Info("withdraw_unbonded", zap.String("receiver", to), zap.Uint64("amount", total))
	return msgs, evt, nil
}

// SubmitBatch freezes the pending batch into an in-flight previous
// batch (spec.md §6 "SubmitBatch { undelegations? }", §4.C state 2).
// operatorUndelegations, if non-nil, requires sender to be owner or
// operator and must sum exactly to the computed utoken_to_unbond.
func (h *Hub) SubmitBatch(ctx context.Context, sender string, now int64, operatorUndelegations []sharemath.Undelegation) ([]hubtypes.Msg, events.Event, error) {
	ts, err := h.loadTxState()
	if err != nil {
		return nil, events.Event{}, err
	}
	if operatorUndelegations != nil {
		if err := ts.config.AssertOwnerOrOperator(sender); err != nil {
			return nil, events.Event{}, err
		}
	}

	pending, _, err := h.Store.PendingBatch()
	if err != nil {
		return nil, events.Event{}, err
	}

	current := ts.ledger.ToMap()
	currentList := make([]sharemath.Delegation, 0, len(current))
	for v, amt := range current {
		currentList = append(currentList, sharemath.Delegation{Validator: v, Amount: amt})
	}
	utokenToUnbond := sharemath.ComputeUnbondAmount(ts.token.TotalSupply, pending.UstakeToBurn, ts.token.TotalUtokenBonded)
	computedPlan := sharemath.ComputeUndelegations(utokenToUnbond, currentList)

	result, err := batch.SubmitBatch(pending, now, ts.token.TotalSupply, ts.token.TotalUtokenBonded, ts.config.UnbondPeriod, ts.config.EpochPeriod, computedPlan, operatorUndelegations)
	if err != nil {
		h.Logger.Warn("submit_batch rejected", zap.Error(err))
		return nil, events.Event{}, err
	}

	undelegateDeltas := make([]ledger.Delegation, 0, len(result.Undelegations))
	msgs := make([]hubtypes.Msg, 0, len(result.Undelegations)+1)
	for _, u := range result.Undelegations {
		undelegateDeltas = append(undelegateDeltas, ledger.Delegation{Validator: u.Validator, Amount: u.Amount})
		msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgUndelegate, Validator: u.Validator, Amount: u.Amount})
	}
	ts.ledger, err = ts.ledger.Undelegate(undelegateDeltas)
	if err != nil {
		return nil, events.Event{}, err
	}

	ts.token.TotalUtokenBonded -= result.UtokenToUnbond
	ts.token.TotalSupply -= pending.UstakeToBurn

	if err := h.commitTxState(ts); err != nil {
		return nil, events.Event{}, err
	}
	if err := h.Store.SavePreviousBatch(result.Submitted); err != nil {
		return nil, events.Event{}, err
	}
	if err := h.Store.SavePendingBatch(result.NextPending); err != nil {
		return nil, events.Event{}, err
	}

	if pending.UstakeToBurn > 0 {
		msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgBurn, Denom: ts.token.StakeDenom, Amount: pending.UstakeToBurn})
	}

	evt := events.New("erishub/submit_batch").
		With("batch_id", fmt.Sprint(result.Submitted.ID)).
		With("utoken_unbonded", fmt.Sprint(result.UtokenToUnbond)).
		With("ustake_burned", fmt.Sprint(pending.UstakeToBurn))

	h.Metrics.SetTotals(ts.token.TotalUtokenBonded, ts.token.TotalSupply)
	h.Metrics.SetPendingBatchID(result.NextPending.ID)
	h.Metrics.MarkTransition("submit_batch")
	h.Logger.Info("submit_batch", zap.Uint64("batch_id", result.Submitted.ID), zap.Uint64("utoken", result.UtokenToUnbond))
	return msgs, evt, nil
}

// Reconcile measures the hub's actual utoken balance against matured,
// unreconciled batches and allocates any shortfall (spec.md §6
// "Reconcile {}", §4.C "Reconciliation"). Callable by anyone — the
// spec places no authorization guard on this transition.
func (h *Hub) Reconcile(ctx context.Context, now int64) (events.Event, error) {
	st, _, err := h.Store.StakeToken()
	if err != nil {
		return events.Event{}, err
	}
	all, err := h.Store.AllPreviousBatches()
	if err != nil {
		return events.Event{}, err
	}

	ptrs := make([]*batch.Previous, 0, len(all))
	for i := range all {
		ptrs = append(ptrs, &all[i])
	}
	matured := batch.MaturedUnreconciled(ptrs, now)
	if len(matured) == 0 {
		return events.New("erishub/reconcile").With("batches_reconciled", "0"), nil
	}

	unlocked, _, err := h.Store.UnlockedCoins()
	if err != nil {
		return events.Event{}, err
	}
	actual, err := h.Bank.Balance(ctx, st.UtokenDenom)
	if err != nil {
		return events.Event{}, fmt.Errorf("stakehub: querying bank balance: %w", err)
	}

	result := batch.Reconcile(matured, unlocked[st.UtokenDenom], actual)
	for _, b := range matured {
		if err := h.Store.SavePreviousBatch(*b); err != nil {
			return events.Event{}, err
		}
	}

	evt := events.New("erishub/reconcile").
		With("batches_reconciled", fmt.Sprint(len(matured))).
		With("deducted", fmt.Sprint(result.Deducted)).
		With("info", result.Info)

	var stillUnreconciled int
	for _, b := range all {
		if !b.Reconciled {
			stillUnreconciled++
		}
	}
	h.Metrics.SetUnreconciledBatches(stillUnreconciled)
	h.Metrics.MarkTransition("reconcile")
	h.Logger.Info("reconcile", zap.Int("batches", len(matured)), zap.Uint64("deducted", result.Deducted))
	return evt, nil
}

// CheckSlashing atomically replaces the delegation ledger with an
// externally reported, sanity-checked snapshot (spec.md §6
// "CheckSlashing { delegations, state_total_utoken_bonded }", §4.E).
func (h *Hub) CheckSlashing(ctx context.Context, sender string, reported []ledger.Delegation, stateTotalUtokenBonded uint64) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}
	if err := cfg.AssertOwnerOrOperator(sender); err != nil {
		return events.Event{}, err
	}

	oldLedger, _, err := h.Store.Delegations()
	if err != nil {
		return events.Event{}, err
	}

	result, err := slashing.Check(oldLedger, reported, stateTotalUtokenBonded)
	if err != nil {
		h.Logger.Warn("check_slashing rejected", zap.Error(err))
		return events.Event{}, err
	}

	st, _, err := h.Store.StakeToken()
	if err != nil {
		return events.Event{}, err
	}
	st.TotalUtokenBonded = result.NewUtokenBonded

	if err := h.Store.SaveDelegations(result.Ledger); err != nil {
		return events.Event{}, err
	}
	if err := h.Store.SaveStakeToken(st); err != nil {
		return events.Event{}, err
	}

	evt := events.New("erishub/check_slashing").
		With("old_utoken_bonded", fmt.Sprint(result.OldUtokenBonded)).
		With("new_utoken_bonded", fmt.Sprint(result.NewUtokenBonded))

	h.Metrics.SetTotals(st.TotalUtokenBonded, st.TotalSupply)
	h.Metrics.MarkTransition("check_slashing")
	h.Logger.Info("check_slashing", zap.Uint64("old", result.OldUtokenBonded), zap.Uint64("new", result.NewUtokenBonded))
	return evt, nil
}
