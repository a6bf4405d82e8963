// internal/domain/purchase/split.go
package purchase

import (
	"errors"
	"math/bits"
)

// ========================================
// Errors (buy_drop validation / arithmetic)
// ========================================

var (
	ErrIncorrectPaymentAmount = errors.New("purchase: payment amount does not match drop price")
	ErrOwnershipMismatch      = errors.New("purchase: presented seller does not match drop seller")
	ErrArithmetic             = errors.New("purchase: arithmetic underflow in seller share")
	ErrInvalidCommissionRate  = errors.New("purchase: commission bps must be <= 10000")
)

const bpsDenominator = 10000

// PaymentSplit は 1 回の購入で移動する lamports の内訳。
// SellerLamports + CommissionLamports == Payment が常に成立する。
type PaymentSplit struct {
	SellerLamports     uint64
	CommissionLamports uint64
}

// SplitPayment computes the commission/seller shares of a payment.
//
//   - commission = floor(payment * commissionBps / 10000)
//     乗算は 128bit 中間値で行う（payment が u64 上限近くでも桁あふれしない）。
//     切り捨て方向は「手数料を下に、出品者を上に」で固定。
//   - seller = payment - commission は checked subtraction。
//     commissionBps <= 10000 を検証済みなら到達しないが、
//     ラップアラウンドで出品者取り分が膨らむ事故だけは防御的に潰す。
func SplitPayment(payment uint64, commissionBps uint16) (PaymentSplit, error) {
	if commissionBps > bpsDenominator {
		return PaymentSplit{}, ErrInvalidCommissionRate
	}

	hi, lo := bits.Mul64(payment, uint64(commissionBps))
	// hi < 10000 は commissionBps <= 10000 より常に成立するので Div64 は panic しない
	commission, _ := bits.Div64(hi, lo, bpsDenominator)

	if commission > payment {
		return PaymentSplit{}, ErrArithmetic
	}

	return PaymentSplit{
		SellerLamports:     payment - commission,
		CommissionLamports: commission,
	}, nil
}
