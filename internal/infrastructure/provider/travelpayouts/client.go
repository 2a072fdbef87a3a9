package travelpayouts

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/provider"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	Name           = "travelpayouts"
	DefaultBaseURL = "https://api.travelpayouts.com"

	DefaultCacheTTL = 30 * time.Minute
	defaultLimit    = 100
	dateLayout      = "2006-01-02"
)

type Config struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	LogFieldMaxLen int
	CacheTTL       time.Duration
}

// Client discovers candidate fares from the aggregated latest-prices feed.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *cache.Cache
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    provider.NewHTTPClient(Name, cfg.Timeout, cfg.LogFieldMaxLen, nil),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (c *Client) Name() string {
	return Name
}

type latestResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Data    []latestPrice `json:"data"`
}

type latestPrice struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DepartDate  string  `json:"depart_date"`
	ReturnDate  string  `json:"return_date"`
	Value       float64 `json:"value"`
	TripClass   int     `json:"trip_class"`
}

// Discover returns recently seen fares out of origin, priced in the origin's
// natural currency.
func (c *Client) Discover(ctx context.Context, origin string) ([]entity.PriceQuote, error) {
	quotes, _, err := c.DiscoverCached(ctx, origin)
	return quotes, err
}

// DiscoverCached is Discover that also reports whether the answer came from
// the local cache without an API call.
func (c *Client) DiscoverCached(ctx context.Context, origin string) ([]entity.PriceQuote, bool, error) {
	if cached, ok := c.cache.Get(origin); ok {
		return cached.([]entity.PriceQuote), true, nil //nolint:forcetypeassert
	}

	currency := value.CurrencyForAirport(origin)

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("currency", strings.ToLower(currency.String()))
	q.Set("period_type", "year")
	q.Set("one_way", "false")
	q.Set("sorting", "price")
	q.Set("limit", strconv.Itoa(defaultLimit))
	q.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/prices/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("http.Do: %w", err)
	}

	var body latestResponse
	if err = provider.Decode(resp, Name, &body); err != nil {
		return nil, false, err
	}

	if !body.Success && body.Error != "" {
		return nil, false, fmt.Errorf("%s: %s", Name, body.Error)
	}

	quotes := make([]entity.PriceQuote, 0, len(body.Data))

	for _, p := range body.Data {
		quote, err := p.toQuote(currency)
		if err != nil {
			logger(ctx).Debug("skip malformed price", slog.String(logx.FieldOrigin, origin), logx.Error(err))
			continue
		}

		quotes = append(quotes, quote)
	}

	c.cache.SetDefault(origin, quotes)

	return quotes, false, nil
}

func (p latestPrice) toQuote(currency value.Currency) (entity.PriceQuote, error) {
	route, err := value.NewRoute(p.Origin, p.Destination)
	if err != nil {
		return entity.PriceQuote{}, err
	}

	if p.Value <= 0 {
		return entity.PriceQuote{}, fmt.Errorf("non-positive price %v", p.Value)
	}

	return entity.PriceQuote{
		Route:         route,
		Cabin:         tripClass(p.TripClass),
		DepartureDate: parseDate(p.DepartDate),
		ReturnDate:    parseDate(p.ReturnDate),
		Price:         decimal.NewFromFloat(p.Value),
		Currency:      currency,
		Source:        Name,
	}, nil
}

func tripClass(c int) value.CabinClass {
	switch c {
	case 1:
		return value.CabinBusiness
	case 2: //nolint:mnd
		return value.CabinFirst
	default:
		return value.CabinEconomy
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}

	return &t
}
