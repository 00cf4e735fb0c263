package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMatchesPrompt(t *testing.T) {
	s := NewStore()
	s.Await(1, AwaitingBuyCustom{MessageID: 10, WalletID: 2, CoinID: 3})

	_, ok := s.Resolve(1, 11)
	assert.False(t, ok, "reply to another message")
	_, ok = s.Resolve(2, 10)
	assert.False(t, ok, "other conversation")

	p, ok := s.Resolve(1, 10)
	require.True(t, ok)
	buy, ok := p.(AwaitingBuyCustom)
	require.True(t, ok)
	assert.Equal(t, uint(3), buy.CoinID)

	_, ok = s.Resolve(1, 10)
	assert.False(t, ok, "consumed")
}

func TestAwaitReplacesAndClear(t *testing.T) {
	s := NewStore()
	s.Await(1, AwaitingRename{MessageID: 5, WalletID: 1})
	s.Await(1, AwaitingWithdrawal{MessageID: 6, WalletID: 1})

	_, ok := s.Resolve(1, 5)
	assert.False(t, ok)
	p, ok := s.Peek(1)
	require.True(t, ok)
	assert.IsType(t, AwaitingWithdrawal{}, p)

	s.Clear(1)
	_, ok = s.Peek(1)
	assert.False(t, ok)
}

func TestVariants(t *testing.T) {
	for _, p := range []Pending{
		AwaitingTradeAddress{MessageID: 1},
		AwaitingRename{MessageID: 1},
		AwaitingWithdrawal{MessageID: 1},
		AwaitingBuyCustom{MessageID: 1},
		AwaitingSellCustom{MessageID: 1},
	} {
		s := NewStore()
		s.Await(9, p)
		got, ok := s.Resolve(9, 1)
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
}

func TestConcurrentUse(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Await(i, AwaitingSellCustom{MessageID: i, CoinID: 1})
			_, ok := s.Resolve(i, i)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
