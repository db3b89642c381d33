package loanform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"lendview/core/loan"
	"lendview/core/pricing"
	"lendview/observability/logging"
	"lendview/services/lending"
	"lendview/services/notify"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Submitter broadcasts a loan opening.
type Submitter interface {
	OpenLoan(ctx context.Context, req lending.OpenLoanRequest) (lending.Receipt, error)
}

// MetricsSink receives loan form analytics.
type MetricsSink interface {
	RecordInput(status string, accepted bool)
	RecordPriceUpdate(priceStatus string)
	RecordSubmit(outcome, reason string, duration time.Duration)
}

// Submission is one journaled submit attempt.
type Submission struct {
	ID         string
	Session    string
	Borrower   string
	Oracle     string
	Collateral string
	Gross      string
	Fee        string
	Net        string
	Outcome    string
	Reason     string
	TxHash     string
	Duration   time.Duration
	CreatedAt  time.Time
}

// Journal persists submit attempts.
type Journal interface {
	Append(ctx context.Context, s Submission) error
}

// QuoteSource reports the latest price observation of the feed backing a
// view. *pricing.Feed satisfies it.
type QuoteSource interface {
	Latest() (pricing.Quote, pricing.PriceStatus)
}

// Config wires the collaborators of a View. Only Submitter is required to
// submit; the remaining collaborators are skipped when nil. Quotes seeds the
// price status of a newly mounted oracle backed view.
type Config struct {
	Submitter Submitter
	Quotes    QuoteSource
	Notifier  notify.Notifier
	Metrics   MetricsSink
	Journal   Journal
	Logger    *slog.Logger
}

// Display holds the human formatted amounts of a snapshot.
type Display struct {
	Gross        string `json:"gross"`
	Fee          string `json:"fee"`
	Net          string `json:"net"`
	FeeRate      string `json:"feeRate"`
	InterestRate string `json:"interestRate"`
}

// Snapshot is the renderable state of a loan form.
type Snapshot struct {
	Session       string  `json:"session"`
	Collateral    string  `json:"collateral"`
	Status        string  `json:"status"`
	Valid         bool    `json:"valid"`
	Gross         string  `json:"gross"`
	Fee           string  `json:"fee"`
	Net           string  `json:"net"`
	FixedRate     bool    `json:"fixedRate"`
	Oracle        string  `json:"oracle,omitempty"`
	PriceStatus   string  `json:"priceStatus"`
	SubmitEnabled bool    `json:"submitEnabled"`
	Display       Display `json:"display"`
}

// View glues one loan form to its collaborators. A View is not safe for
// concurrent use; callers serialise events per view.
type View struct {
	id          string
	form        *loan.Form
	cfg         Config
	logger      *slog.Logger
	priceStatus pricing.PriceStatus
	clockNow    func() time.Time
}

// NewView mounts a view around form.
func NewView(id string, form *loan.Form, cfg Config) (*View, error) {
	if form == nil {
		return nil, fmt.Errorf("loanform: form required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		id:          id,
		form:        form,
		cfg:         cfg,
		logger:      logger.With("component", "loanform", "session", id),
		priceStatus: initialPriceStatus(form.Params(), cfg.Quotes),
		clockNow:    time.Now,
	}, nil
}

// initialPriceStatus reports the feed status a view starts from. The fixed
// rate line never consults the feed.
func initialPriceStatus(params loan.Params, quotes QuoteSource) pricing.PriceStatus {
	if params.FixedRateLine() || quotes == nil {
		return pricing.PriceStatusOK
	}
	_, status := quotes.Latest()
	return status
}

// ID returns the session identifier of the view.
func (v *View) ID() string { return v.id }

// Form exposes the underlying form state holder.
func (v *View) Form() *loan.Form { return v.form }

// OnCollateralInput forwards typed text to the form.
func (v *View) OnCollateralInput(raw string) bool {
	accepted := v.form.OnCollateralInput(raw)
	if v.cfg.Metrics != nil {
		v.cfg.Metrics.RecordInput(string(v.form.Status()), accepted)
	}
	if !accepted {
		v.logger.Debug("collateral edit refused", "reason", "filter")
	}
	return accepted
}

// OnPriceUpdate re-derives the loan after the price feed moved.
func (v *View) OnPriceUpdate(status pricing.PriceStatus) {
	v.priceStatus = status
	v.form.OnPriceUpdate()
	if v.cfg.Metrics != nil {
		v.cfg.Metrics.RecordPriceUpdate(string(status))
	}
}

// Snapshot renders the current form state.
func (v *View) Snapshot() Snapshot {
	state := v.form.State()
	params := v.form.Params()
	q := state.Loan
	snap := Snapshot{
		Session:       v.id,
		Collateral:    state.Collateral.Raw,
		Status:        string(state.Status()),
		Valid:         state.Collateral.Valid,
		Gross:         q.Gross.String(),
		Fee:           q.OriginationFee.String(),
		Net:           q.Net.String(),
		FixedRate:     params.FixedRateLine(),
		PriceStatus:   string(v.priceStatus),
		SubmitEnabled: state.SubmitEnabled(),
		Display: Display{
			Gross:        FormatAmount(q.Gross),
			Fee:          FormatAmount(q.OriginationFee),
			Net:          FormatAmount(q.Net),
			FeeRate:      FormatPercent(params.OriginationFeeRate),
			InterestRate: FormatPercent(params.InterestRateYearly),
		},
	}
	if !snap.FixedRate {
		snap.Oracle = params.OracleAddress.Hex()
	}
	return snap
}

// PendingSubmit is a loan captured from the form and ready to broadcast. It
// holds copies of the form values, so Send may run while the form keeps
// handling input and price events.
type PendingSubmit struct {
	view     *View
	borrower common.Address
	amount   string
	quantity loan.Quantities
	params   loan.Params
}

// PrepareSubmit captures the validated loan for borrower. It reads form state
// and must run inside the caller's event serialisation.
func (v *View) PrepareSubmit(borrower common.Address) (*PendingSubmit, error) {
	if !v.form.SubmitEnabled() {
		return nil, ErrSubmitDisabled
	}
	if v.cfg.Submitter == nil {
		return nil, ErrSubmitterMissing
	}
	return &PendingSubmit{
		view:     v,
		borrower: borrower,
		amount:   v.form.ValidatedCollateralAmount(),
		quantity: v.form.Quantities(),
		params:   v.form.Params(),
	}, nil
}

// Submit prepares and sends the validated loan for borrower in one step.
func (v *View) Submit(ctx context.Context, borrower common.Address) (lending.Receipt, error) {
	pending, err := v.PrepareSubmit(borrower)
	if err != nil {
		return lending.Receipt{}, err
	}
	return pending.Send(ctx)
}

// Send broadcasts the captured loan. Every attempt is journaled and announced
// through the notifier.
func (p *PendingSubmit) Send(ctx context.Context) (lending.Receipt, error) {
	v := p.view
	q := p.quantity
	amount := p.amount

	start := v.clockNow()
	receipt, err := v.cfg.Submitter.OpenLoan(ctx, lending.OpenLoanRequest{
		Borrower:   p.borrower,
		Oracle:     p.params.OracleAddress,
		Collateral: amount,
	})
	elapsed := v.clockNow().Sub(start)

	entry := Submission{
		ID:         uuid.NewString(),
		Session:    v.id,
		Borrower:   p.borrower.Hex(),
		Oracle:     p.params.OracleAddress.Hex(),
		Collateral: amount,
		Gross:      q.Gross.String(),
		Fee:        q.OriginationFee.String(),
		Net:        q.Net.String(),
		Duration:   elapsed,
		CreatedAt:  start.UTC(),
	}
	note := notify.Notification{Session: v.id, Time: entry.CreatedAt}
	if err != nil {
		entry.Outcome = outcomeFailure
		entry.Reason = ClassifyError(err)
		note.Level = notify.LevelError
		note.Title = "Loan submission failed"
		note.Message = failureMessage(entry.Reason)
		v.logger.Warn("loan submission failed",
			logging.MaskAddress("borrower", entry.Borrower),
			"reason", entry.Reason,
			"error", err,
		)
	} else {
		entry.Outcome = outcomeSuccess
		entry.TxHash = receipt.TxHash.Hex()
		note.Level = notify.LevelSuccess
		note.Title = "Loan opened"
		note.Message = fmt.Sprintf("Borrowed %s against %s collateral.", FormatAmount(q.Net), amount)
		note.TxHash = entry.TxHash
		v.logger.Info("loan submitted",
			logging.MaskAddress("borrower", entry.Borrower),
			"tx_hash", entry.TxHash,
		)
	}

	if v.cfg.Metrics != nil {
		v.cfg.Metrics.RecordSubmit(entry.Outcome, entry.Reason, elapsed)
	}
	if v.cfg.Journal != nil {
		if jerr := v.cfg.Journal.Append(ctx, entry); jerr != nil {
			v.logger.Error("journal submission", "error", jerr)
		}
	}
	if v.cfg.Notifier != nil {
		if nerr := v.cfg.Notifier.Notify(ctx, note); nerr != nil {
			v.logger.Warn("notify submission", "error", nerr)
		}
	}

	if err != nil {
		return lending.Receipt{}, &SubmitError{Reason: entry.Reason, Err: err}
	}
	return receipt, nil
}
