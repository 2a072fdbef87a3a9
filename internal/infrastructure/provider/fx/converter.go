package fx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/provider"
	"fareglitch/pkg/errcodes"
)

const (
	Name           = "exchangerate-api"
	DefaultBaseURL = "https://api.exchangerate-api.com"

	DefaultCacheTTL = 6 * time.Hour
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	LogFieldMaxLen int
	CacheTTL       time.Duration
}

// Converter converts amounts using the latest published exchange rates.
// Rate tables are cached per base currency.
type Converter struct {
	baseURL string
	http    *http.Client
	rates   *cache.Cache
}

func NewConverter(cfg Config) *Converter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Converter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    provider.NewHTTPClient(Name, cfg.Timeout, cfg.LogFieldMaxLen, nil),
		rates:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (c *Converter) Convert(
	ctx context.Context,
	amount decimal.Decimal,
	from, to value.Currency,
) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	return amount.Mul(rate).Round(2), nil //nolint:mnd
}

// Rate returns how many units of to buy one unit of from.
func (c *Converter) Rate(ctx context.Context, from, to value.Currency) (decimal.Decimal, error) {
	rates, err := c.table(ctx, from)
	if err != nil {
		return decimal.Zero, domain.WrapError(
			err,
			errcodes.CurrencyConversionFailed,
			fmt.Sprintf("load %s rates", from),
		)
	}

	rate, ok := rates[to.String()]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, domain.NewError(
			errcodes.CurrencyConversionFailed,
			fmt.Sprintf("no %s→%s rate", from, to),
		)
	}

	return rate, nil
}

func (c *Converter) table(ctx context.Context, base value.Currency) (map[string]decimal.Decimal, error) {
	if cached, ok := c.rates.Get(base.String()); ok {
		return cached.(map[string]decimal.Decimal), nil //nolint:forcetypeassert
	}

	endpoint := c.baseURL + "/v4/latest/" + url.PathEscape(base.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}

	var body latestResponse
	if err = provider.Decode(resp, Name, &body); err != nil {
		return nil, err
	}

	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("%s: empty rate table for %s", Name, base)
	}

	c.rates.SetDefault(base.String(), body.Rates)

	return body.Rates, nil
}
