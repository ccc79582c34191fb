package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/signal"
)

// ErrMalformedFrame tags frames that claim to be market data but cannot be
// decoded into a MarketEvent. The feed drops them and keeps consuming.
var ErrMalformedFrame = errors.New("malformed market data frame")

// flexFloat decodes JSON numbers that the venue serializes either as numbers
// or as quoted strings, depending on the channel.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type wsFrame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

type tickerData struct {
	BestBidPrice flexFloat `json:"bestBidPrice"`
	BestBidSize  flexFloat `json:"bestBidSize"`
	BestAskPrice flexFloat `json:"bestAskPrice"`
	BestAskSize  flexFloat `json:"bestAskSize"`
	Ts           int64     `json:"ts"`
}

type matchData struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
	Side  string    `json:"side"`
	Ts    int64     `json:"ts"`
}

type instrumentData struct {
	MarkPrice   flexFloat `json:"markPrice"`
	IndexPrice  flexFloat `json:"indexPrice"`
	FundingRate flexFloat `json:"fundingRate"`
	Ts          int64     `json:"ts"`
}

// parseFrame decodes one inbound websocket frame. ok is false for control
// frames (welcome, pong, subscribe acks) and unknown topics, which are skipped
// without error; a frame that should carry market data but cannot be decoded
// returns ErrMalformedFrame.
func parseFrame(symbol string, raw []byte) (ev signal.MarketEvent, ok bool, err error) {
	var frame wsFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return signal.MarketEvent{}, false, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if frame.Type != "message" || len(frame.Data) == 0 {
		return signal.MarketEvent{}, false, nil
	}

	switch {
	case strings.Contains(frame.Topic, "tickerV2") && frame.Subject == "tickerV2":
		var d tickerData
		if err := json.Unmarshal(frame.Data, &d); err != nil {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: ticker: %v", ErrMalformedFrame, err)
		}
		if d.Ts == 0 {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: ticker missing ts", ErrMalformedFrame)
		}
		return signal.MarketEvent{
			Kind:     signal.KindTicker,
			Symbol:   symbol,
			Ts:       time.Unix(0, d.Ts),
			BidPrice: float64(d.BestBidPrice),
			BidSize:  float64(d.BestBidSize),
			AskPrice: float64(d.BestAskPrice),
			AskSize:  float64(d.BestAskSize),
		}, true, nil

	case strings.Contains(frame.Topic, "execution") && frame.Subject == "match":
		var d matchData
		if err := json.Unmarshal(frame.Data, &d); err != nil {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: match: %v", ErrMalformedFrame, err)
		}
		if d.Ts == 0 {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: match missing ts", ErrMalformedFrame)
		}
		side := 1
		if d.Side == "sell" {
			side = -1
		}
		return signal.MarketEvent{
			Kind:   signal.KindTrade,
			Symbol: symbol,
			Ts:     time.Unix(0, d.Ts),
			Price:  float64(d.Price),
			Size:   float64(d.Size),
			Side:   side,
		}, true, nil

	case strings.Contains(frame.Topic, "instrument") && frame.Subject == "instrument":
		var d instrumentData
		if err := json.Unmarshal(frame.Data, &d); err != nil {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: instrument: %v", ErrMalformedFrame, err)
		}
		if d.Ts == 0 {
			return signal.MarketEvent{}, false, fmt.Errorf("%w: instrument missing ts", ErrMalformedFrame)
		}
		return signal.MarketEvent{
			Kind:        signal.KindInstrument,
			Symbol:      symbol,
			Ts:          time.Unix(0, d.Ts),
			MarkPrice:   float64(d.MarkPrice),
			IndexPrice:  float64(d.IndexPrice),
			FundingRate: float64(d.FundingRate),
		}, true, nil
	}
	return signal.MarketEvent{}, false, nil
}
