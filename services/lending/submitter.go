package lending

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var errTxHashMissing = errors.New("lending: node returned no transaction hash")

// OpenLoanRequest is the payload broadcast when the borrower submits the form.
type OpenLoanRequest struct {
	Borrower   common.Address
	Oracle     common.Address
	Collateral string
}

// Receipt identifies the broadcast transaction.
type Receipt struct {
	TxHash common.Hash
}

type openLoanParams struct {
	Borrower      string `json:"borrower"`
	Oracle        string `json:"oracle"`
	Collateral    string `json:"collateral"`
	CollateralWei string `json:"collateralWei"`
}

type openLoanResult struct {
	TxHash string `json:"txHash"`
}

// Submitter broadcasts loan openings through the node RPC.
type Submitter struct {
	caller Caller
}

// NewSubmitter constructs a submitter backed by caller.
func NewSubmitter(caller Caller) *Submitter {
	return &Submitter{caller: caller}
}

// OpenLoan broadcasts req and returns the transaction receipt.
func (s *Submitter) OpenLoan(ctx context.Context, req OpenLoanRequest) (Receipt, error) {
	if s == nil || s.caller == nil {
		return Receipt{}, fmt.Errorf("lending: submitter not configured")
	}
	if req.Borrower == (common.Address{}) {
		return Receipt{}, fmt.Errorf("lending: borrower address required")
	}
	wei, err := ToWei(req.Collateral)
	if err != nil {
		return Receipt{}, err
	}
	params := openLoanParams{
		Borrower:      req.Borrower.Hex(),
		Oracle:        req.Oracle.Hex(),
		Collateral:    req.Collateral,
		CollateralWei: wei.Dec(),
	}
	var result openLoanResult
	if err := s.caller.Call(ctx, "lending_openLoan", []any{params}, &result); err != nil {
		return Receipt{}, err
	}
	hash := strings.TrimSpace(result.TxHash)
	if hash == "" {
		return Receipt{}, errTxHashMissing
	}
	return Receipt{TxHash: common.HexToHash(hash)}, nil
}
