package accounts

import (
	"sort"
	"strconv"
	"sync"

	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
	"ibgw/internal/service"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

type UpdateType string

const (
	UpdateSummary  UpdateType = "summary"
	UpdateDetails  UpdateType = "details"
	UpdatePosition UpdateType = "position"
)

// Update is one normalized change of an account.
type Update struct {
	Type    UpdateType
	Account string
	Field   string
	Value   any
}

// Handlers receive the account model's notifications. All are optional.
type Handlers struct {
	Update func(Update)
	// Load is called once the summary is complete and the detail stream is requested.
	Load  func()
	Error func(error)
}

// Option configures Accounts.
type Option func(*Accounts)

// WithTags overrides the requested summary tags.
func WithTags(tags string) Option {
	return func(a *Accounts) {
		if tags != "" {
			a.tags = tags
		}
	}
}

// WithGroup sets the account group of the summary.
func WithGroup(group string) Option {
	return func(a *Accounts) {
		if group != "" {
			a.group = group
		}
	}
}

// WithAccount picks the account whose values and portfolio are streamed
// after the summary. By default the first account of the summary is used.
func WithAccount(account string) Option {
	return func(a *Accounts) {
		a.account = account
	}
}

// Accounts keeps a normalized view of account summaries, account values and
// portfolio positions.
type Accounts struct {
	svc     *service.Service
	tags    string
	group   string
	account string

	mu         sync.Mutex
	h          Handlers
	summary    map[string]map[string]any
	details    map[string]map[string]any
	positions  map[string]map[int64]gateway.UpdatePortfolio
	streamed   string
	summarySub *dispatch.Subscription
	updateSub  *dispatch.Subscription
}

func New(svc *service.Service, opts ...Option) *Accounts {
	a := &Accounts{
		svc:       svc,
		tags:      defaultTags(),
		group:     "All",
		summary:   map[string]map[string]any{},
		details:   map[string]map[string]any{},
		positions: map[string]map[int64]gateway.UpdatePortfolio{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Stream requests the account summary. When it ends the summary request is
// released and the selected account's value stream is opened.
func (a *Accounts) Stream(h Handlers) error {
	a.mu.Lock()
	a.h = h
	a.mu.Unlock()

	sub := a.svc.AccountSummary(a.group, a.tags, dispatch.Handlers{
		Data:  a.onSummary,
		End:   a.onSummaryEnd,
		Error: a.fail,
	})
	a.mu.Lock()
	a.summarySub = sub
	a.mu.Unlock()

	if err := sub.Send(); err != nil {
		return errors.Wrap(err, "send account summary")
	}
	return nil
}

// Cancel stops every request the model started.
func (a *Accounts) Cancel() {
	a.mu.Lock()
	subs := []*dispatch.Subscription{a.summarySub, a.updateSub}
	a.summarySub, a.updateSub = nil, nil
	a.mu.Unlock()

	for _, sub := range subs {
		if sub != nil {
			sub.Close()
		}
	}
}

// Streamed returns the account whose values are being streamed.
func (a *Accounts) Streamed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.streamed
}

// Accounts returns the accounts seen in the summary, sorted.
func (a *Accounts) Accounts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.summary))
	for id := range a.summary {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Summary returns a copy of the summary fields of account.
func (a *Accounts) Summary(account string) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyFields(a.summary[account])
}

// Details returns a copy of the streamed account values of account.
func (a *Accounts) Details(account string) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyFields(a.details[account])
}

// Positions returns the portfolio of account keyed by contract id.
func (a *Accounts) Positions(account string) map[int64]gateway.UpdatePortfolio {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int64]gateway.UpdatePortfolio, len(a.positions[account]))
	for k, v := range a.positions[account] {
		out[k] = v
	}
	return out
}

func (a *Accounts) onSummary(payload any) {
	datum, ok := payload.(gateway.AccountSummary)
	if !ok || datum.Account == "" || datum.Tag == "" {
		return
	}
	field := Camelize(datum.Tag)
	value := Normalize(datum.Value, datum.Currency)

	a.mu.Lock()
	fields, ok := a.summary[datum.Account]
	if !ok {
		fields = map[string]any{}
		a.summary[datum.Account] = fields
	}
	fields[field] = value
	a.mu.Unlock()

	a.emit(Update{Type: UpdateSummary, Account: datum.Account, Field: field, Value: value})
}

func (a *Accounts) onSummaryEnd(end dispatch.End) {
	end.Release()

	a.mu.Lock()
	account := a.account
	if account == "" {
		for id := range a.summary {
			if account == "" || id < account {
				account = id
			}
		}
	}
	if account == "" {
		h := a.h
		a.mu.Unlock()
		logs.Warnf("accounts: summary ended without accounts, timed out %v", end.TimedOut)
		if h.Load != nil {
			h.Load()
		}
		return
	}
	a.streamed = account
	if _, ok := a.details[account]; !ok {
		a.details[account] = map[string]any{}
	}
	if _, ok := a.positions[account]; !ok {
		a.positions[account] = map[int64]gateway.UpdatePortfolio{}
	}
	h := a.h
	a.mu.Unlock()

	sub := a.svc.AccountUpdates(account, dispatch.Handlers{
		Data: func(payload any) { a.onUpdate(account, payload) },
		End: func(dispatch.End) {
			logs.Debugf("accounts: %s download complete", account)
		},
		Error: a.fail,
	})
	a.mu.Lock()
	a.updateSub = sub
	a.mu.Unlock()

	if err := sub.Send(); err != nil {
		logs.Errorf("accounts: stream %s, err: %+v", account, err)
	}
	if h.Load != nil {
		h.Load()
	}
}

func (a *Accounts) onUpdate(account string, payload any) {
	var update Update
	switch v := payload.(type) {
	case gateway.UpdateAccountValue:
		if v.Key == "" {
			return
		}
		if v.Account != "" {
			account = v.Account
		}
		update = Update{Type: UpdateDetails, Account: account, Field: Camelize(v.Key), Value: Normalize(v.Value, v.Currency)}
		a.setDetail(account, update.Field, update.Value)
	case gateway.UpdateAccountTime:
		update = Update{Type: UpdateDetails, Account: account, Field: "timestamp", Value: v.Timestamp}
		a.setDetail(account, update.Field, update.Value)
	case gateway.UpdatePortfolio:
		if v.Account != "" {
			account = v.Account
		}
		a.mu.Lock()
		book, ok := a.positions[account]
		if !ok {
			book = map[int64]gateway.UpdatePortfolio{}
			a.positions[account] = book
		}
		book[v.Contract.ConID] = v
		a.mu.Unlock()
		update = Update{Type: UpdatePosition, Account: account, Field: strconv.FormatInt(v.Contract.ConID, 10), Value: v}
	default:
		logs.Warnf("accounts: unrecognized account update %T", payload)
		return
	}
	a.emit(update)
}

func (a *Accounts) setDetail(account, field string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fields, ok := a.details[account]
	if !ok {
		fields = map[string]any{}
		a.details[account] = fields
	}
	fields[field] = value
}

func (a *Accounts) emit(u Update) {
	a.mu.Lock()
	fn := a.h.Update
	a.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

func (a *Accounts) fail(err error) {
	a.mu.Lock()
	fn := a.h.Error
	a.mu.Unlock()
	if fn != nil {
		fn(err)
		return
	}
	logs.Errorf("accounts: %+v", err)
}

func copyFields(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
