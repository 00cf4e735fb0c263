// Package session tracks, per conversation, which reply the front-end is
// waiting for. A reply resolves the pending intent only when it answers the
// prompt message that created it.
package session

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("session")

// Pending is one of the Awaiting* intents.
type Pending interface {
	// PromptID is the id of the prompt message a reply must answer.
	PromptID() int64
	isPending()
}

// AwaitingTradeAddress waits for a coin address to trade with WalletID.
type AwaitingTradeAddress struct {
	MessageID int64
	WalletID  uint
}

// AwaitingRename waits for the new label of WalletID.
type AwaitingRename struct {
	MessageID int64
	WalletID  uint
}

// AwaitingWithdrawal waits for "recipient amount" for WalletID.
type AwaitingWithdrawal struct {
	MessageID int64
	WalletID  uint
}

// AwaitingBuyCustom waits for a custom APT amount to buy CoinID with.
type AwaitingBuyCustom struct {
	MessageID int64
	WalletID  uint
	CoinID    uint
}

// AwaitingSellCustom waits for a custom percentage of CoinID to sell.
type AwaitingSellCustom struct {
	MessageID int64
	WalletID  uint
	CoinID    uint
}

func (p AwaitingTradeAddress) PromptID() int64 { return p.MessageID }
func (p AwaitingRename) PromptID() int64       { return p.MessageID }
func (p AwaitingWithdrawal) PromptID() int64   { return p.MessageID }
func (p AwaitingBuyCustom) PromptID() int64    { return p.MessageID }
func (p AwaitingSellCustom) PromptID() int64   { return p.MessageID }

func (AwaitingTradeAddress) isPending() {}
func (AwaitingRename) isPending()       {}
func (AwaitingWithdrawal) isPending()   {}
func (AwaitingBuyCustom) isPending()    {}
func (AwaitingSellCustom) isPending()   {}

// Store holds at most one pending intent per conversation. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	pending map[int64]Pending
}

func NewStore() *Store {
	return &Store{pending: make(map[int64]Pending)}
}

// Await records p for conversation conv, replacing any earlier intent.
func (s *Store) Await(conv int64, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.pending[conv]; ok {
		log.Debugf("Await: conversation %d replaces pending %T", conv, prev)
	}
	s.pending[conv] = p
}

// Resolve consumes the pending intent of conv if replyTo is its prompt.
// Replies to other messages leave the intent in place.
func (s *Store) Resolve(conv, replyTo int64) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[conv]
	if !ok || p.PromptID() != replyTo {
		return nil, false
	}
	delete(s.pending, conv)
	return p, true
}

// Peek returns the pending intent of conv without consuming it.
func (s *Store) Peek(conv int64) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[conv]
	return p, ok
}

// Clear drops any pending intent of conv.
func (s *Store) Clear(conv int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, conv)
}
