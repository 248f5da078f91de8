package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/config"
	"newsdesk/internal/types"
)

// fetchConcurrency bounds parallel symbol fetches within one batch.
const fetchConcurrency = 4

// Status classifies one per-name outcome inside a batch.
type Status string

const (
	// StatusOK means the quote was fetched and computed.
	StatusOK Status = "ok"

	// StatusNotSupported means the requested name is not in the catalog.
	StatusNotSupported Status = "not_supported"

	// StatusUnavailable means the name resolved but the quote source had
	// no usable data for it. This is reported explicitly rather than
	// silently omitted so callers can tell "not requested" from
	// "requested but empty".
	StatusUnavailable Status = "unavailable"
)

// Quote holds the latest daily numbers for one commodity, in USD.
type Quote struct {
	Price         float64
	Change        float64
	ChangePercent float64
}

// Entry is the per-name result inside a QuoteSet.
type Entry struct {
	Name   string
	Symbol string
	Status Status
	Quote  Quote
	Reason string
}

// QuoteSet preserves the request order of a batch. A failure for one name
// never fails the others.
type QuoteSet []Entry

// OK reports whether at least one entry carries a usable quote.
func (qs QuoteSet) OK() bool {
	for _, e := range qs {
		if e.Status == StatusOK {
			return true
		}
	}
	return false
}

// Client fetches commodity quotes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a market client from config.
func NewClient(cfg config.MarketConfig, timeoutCfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeoutCfg.MarketTimeout()},
		log:        log.Named("market"),
	}
}

// Quotes fetches the latest daily quote for each requested commodity name.
// Unknown names become not-supported entries and per-symbol outages become
// unavailable entries; both leave the rest of the batch intact. The
// returned set follows the request order.
func (c *Client) Quotes(ctx context.Context, names []string) (QuoteSet, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one commodity name is required", types.ErrValidation)
	}

	set := make(QuoteSet, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, name := range names {
		commodity, ok := Resolve(name)
		if !ok {
			set[i] = Entry{Name: strings.TrimSpace(name), Status: StatusNotSupported, Reason: "not supported"}
			continue
		}

		g.Go(func() error {
			quote, err := c.fetchQuote(ctx, commodity.Symbol)
			if err != nil {
				c.log.Warn("quote fetch failed",
					zap.String("name", commodity.Name),
					zap.String("symbol", commodity.Symbol),
					zap.Error(err))
				set[i] = Entry{Name: commodity.Name, Symbol: commodity.Symbol, Status: StatusUnavailable, Reason: err.Error()}
				return nil
			}
			set[i] = Entry{Name: commodity.Name, Symbol: commodity.Symbol, Status: StatusOK, Quote: *quote}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// chart endpoint wire types

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: quote request failed: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read quote response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: quote source returned status %d for %s", types.ErrTransport, resp.StatusCode, symbol)
	}

	var decoded chartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: parse quote response: %v", types.ErrSchema, err)
	}
	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("%w: quote source error for %s: %s", types.ErrTransport, symbol, decoded.Chart.Error.Description)
	}
	if len(decoded.Chart.Result) == 0 || len(decoded.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no data available for %s", types.ErrSchema, symbol)
	}

	series := decoded.Chart.Result[0].Indicators.Quote[0]
	open, okOpen := firstValue(series.Open)
	closePrice, okClose := lastValue(series.Close)
	if !okOpen || !okClose {
		return nil, fmt.Errorf("%w: no data available for %s", types.ErrSchema, symbol)
	}
	if open == 0 {
		return nil, fmt.Errorf("%w: zero open price for %s", types.ErrSchema, symbol)
	}

	change := closePrice - open
	return &Quote{
		Price:         round2(closePrice),
		Change:        round2(change),
		ChangePercent: round2(change / open * 100),
	}, nil
}

func firstValue(vals []*float64) (float64, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

func lastValue(vals []*float64) (float64, bool) {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != nil {
			return *vals[i], true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
