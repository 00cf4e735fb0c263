package types

import (
	"encoding/json"
	"strings"
)

// swapEventMarker identifies Liquidswap pool swap events in an event type.
const swapEventMarker = "::liquidity_pool::SwapEvent"

// ParsedEvent is an event decoded at the chain boundary: either *SwapEvent or *OtherEvent.
type ParsedEvent interface {
	EventType() string
}

// SwapEvent is a Liquidswap LiquidityPool swap. X and Y are the pool's coin types
// when they can be read from the event type; both are empty otherwise.
type SwapEvent struct {
	Type string
	X, Y string
	XIn  BigInt
	XOut BigInt
	YIn  BigInt
	YOut BigInt
}

func (e *SwapEvent) EventType() string { return e.Type }

// OtherEvent is any event the core does not interpret.
type OtherEvent struct {
	Type string
	Data json.RawMessage
}

func (e *OtherEvent) EventType() string { return e.Type }

type swapEventData struct {
	XIn  FlexInt `json:"x_in"`
	XOut FlexInt `json:"x_out"`
	YIn  FlexInt `json:"y_in"`
	YOut FlexInt `json:"y_out"`
}

// ParseEvent decodes a raw event. Malformed swap payloads degrade to OtherEvent.
func ParseEvent(ev Event) ParsedEvent {
	if !strings.Contains(ev.Type, swapEventMarker) {
		return &OtherEvent{Type: ev.Type, Data: ev.Data}
	}
	var d swapEventData
	if err := json.Unmarshal(ev.Data, &d); err != nil {
		return &OtherEvent{Type: ev.Type, Data: ev.Data}
	}
	se := &SwapEvent{
		Type: ev.Type,
		XIn:  OrZero(d.XIn.BigInt),
		XOut: OrZero(d.XOut.BigInt),
		YIn:  OrZero(d.YIn.BigInt),
		YOut: OrZero(d.YOut.BigInt),
	}
	if tag, err := ParseStructTag(ev.Type); err == nil && len(tag.TypeArgs) >= 2 {
		se.X, se.Y = tag.TypeArgs[0], tag.TypeArgs[1]
	}
	return se
}

// ParseEvents decodes every event of a transaction.
func ParseEvents(evs []Event) []ParsedEvent {
	out := make([]ParsedEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ParseEvent(ev))
	}
	return out
}

// RealizedOutput reads the amount of toToken delivered by a swap from its events.
//
// When a SwapEvent names its pool coins, the output side is the one whose coin is
// toToken and events of other pools are skipped. Events without readable coin
// types fall back to whichever of x_out / y_out is nonzero; ambiguous=true flags
// that fallback. found=false means no swap event matched. The last matching event wins.
func RealizedOutput(events []ParsedEvent, toToken string) (out BigInt, found, ambiguous bool) {
	out = NewInt(0)
	for _, ev := range events {
		se, ok := ev.(*SwapEvent)
		if !ok {
			continue
		}
		switch {
		case se.X != "" && SameType(se.X, toToken):
			out, found, ambiguous = se.XOut, true, false
		case se.Y != "" && SameType(se.Y, toToken):
			out, found, ambiguous = se.YOut, true, false
		case se.X == "" && se.Y == "":
			if !IsZero(se.XOut) {
				out = se.XOut
			} else {
				out = se.YOut
			}
			found, ambiguous = true, true
		}
	}
	return out, found, ambiguous
}
