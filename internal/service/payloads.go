package service

import "context"

const (
	RequestTypeBuy      = "buy"
	RequestTypeSell     = "sell"
	RequestTypeWithdraw = "withdraw"
)

// Payload is a front-end request routed by Execute.
type Payload struct {
	Type       string `json:"type"`
	UserID     uint   `json:"user_id"`
	WalletID   uint   `json:"wallet_id"`
	CoinID     uint   `json:"coin_id"`
	Amount     string `json:"amount"`
	Percentage int    `json:"percentage"`
	Recipient  string `json:"recipient"`
	CoinType   string `json:"coin_type"`
}

// TradeRequest is a buy (Amount, decimal APT) or a sell (Percentage of the coin balance).
type TradeRequest struct {
	UserID     uint   `json:"user_id"`
	WalletID   uint   `json:"wallet_id"`
	CoinID     uint   `json:"coin_id"`
	Amount     string `json:"amount"`
	Percentage int    `json:"percentage"`
}

// WithdrawRequest transfers Amount (decimal) of CoinType, APT when empty.
type WithdrawRequest struct {
	UserID    uint   `json:"user_id"`
	WalletID  uint   `json:"wallet_id"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	CoinType  string `json:"coin_type"`
}

// Result holds the report of whichever flow Execute ran.
type Result struct {
	Trade    *TradeReport
	Withdraw *WithdrawReport
}

// Execute dispatches a request to its flow. The report is returned even when
// err is set, so callers can show transaction hashes of partial progress.
func (o *Orchestrator) Execute(ctx context.Context, req *Payload) (*Result, error) {
	res, err := o.executeRequest(ctx, req)
	if err != nil {
		log.Errorf("Execute: %s request failed: %v", req.Type, err)
		return res, err
	}
	log.Infof("Execute: %s request completed successfully", req.Type)
	return res, nil
}

func (o *Orchestrator) executeRequest(ctx context.Context, req *Payload) (*Result, error) {
	switch req.Type {
	case RequestTypeBuy:
		r, err := o.Buy(ctx, TradeRequest{UserID: req.UserID, WalletID: req.WalletID, CoinID: req.CoinID, Amount: req.Amount})
		return &Result{Trade: r}, err
	case RequestTypeSell:
		r, err := o.Sell(ctx, TradeRequest{UserID: req.UserID, WalletID: req.WalletID, CoinID: req.CoinID, Percentage: req.Percentage})
		return &Result{Trade: r}, err
	case RequestTypeWithdraw:
		r, err := o.Withdraw(ctx, WithdrawRequest{
			UserID:    req.UserID,
			WalletID:  req.WalletID,
			Recipient: req.Recipient,
			Amount:    req.Amount,
			CoinType:  req.CoinType,
		})
		return &Result{Withdraw: r}, err
	default:
		return nil, invalid("type", "unsupported request type %q", req.Type)
	}
}
