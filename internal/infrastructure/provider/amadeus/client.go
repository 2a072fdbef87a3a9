package amadeus

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
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/provider"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	Name              = "amadeus"
	ProductionBaseURL = "https://api.amadeus.com"
	TestBaseURL       = "https://test.api.amadeus.com"

	DefaultCacheTTL = 30 * time.Minute
	maxOffers       = 10
	dateLayout      = "2006-01-02"
)

type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	Timeout        time.Duration
	LogFieldMaxLen int
	CacheTTL       time.Duration
}

// Client serves both cached inspiration prices (candidate discovery) and
// bookable flight offers (live verification).
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionBaseURL
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	auth := NewAuthenticator(
		baseURL,
		cfg.ClientID,
		cfg.ClientSecret,
		provider.NewHTTPClient(Name, cfg.Timeout, cfg.LogFieldMaxLen, nil),
	)

	return &Client{
		baseURL: baseURL,
		http:    provider.NewHTTPClient(Name, cfg.Timeout, cfg.LogFieldMaxLen, auth),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (c *Client) Name() string {
	return Name
}

type price struct {
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

type destinationsResponse struct {
	Data []destination `json:"data"`
	Meta struct {
		Currency string `json:"currency"`
	} `json:"meta"`
}

type destination struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Price         price  `json:"price"`
}

// Discover queries the flight inspiration search, which is served from cache
// rather than live inventory.
func (c *Client) Discover(ctx context.Context, origin string) ([]entity.PriceQuote, error) {
	quotes, _, err := c.DiscoverCached(ctx, origin)
	return quotes, err
}

// DiscoverCached also reports a cache hit, which costs no API call.
func (c *Client) DiscoverCached(ctx context.Context, origin string) ([]entity.PriceQuote, bool, error) {
	if cached, ok := c.cache.Get(origin); ok {
		return cached.([]entity.PriceQuote), true, nil //nolint:forcetypeassert
	}

	q := url.Values{}
	q.Set("origin", origin)

	var body destinationsResponse
	if err := c.get(ctx, "/v1/shopping/flight-destinations", q, &body); err != nil {
		return nil, false, err
	}

	fallback := lo.CoalesceOrEmpty(body.Meta.Currency, value.CurrencyForAirport(origin).String())
	quotes := make([]entity.PriceQuote, 0, len(body.Data))

	for _, d := range body.Data {
		quote, err := d.toQuote(fallback)
		if err != nil {
			logger(ctx).Debug("skip malformed destination", slog.String(logx.FieldOrigin, origin), logx.Error(err))
			continue
		}

		quotes = append(quotes, quote)
	}

	c.cache.SetDefault(origin, quotes)

	return quotes, false, nil
}

func (d destination) toQuote(fallbackCurrency string) (entity.PriceQuote, error) {
	route, err := value.NewRoute(d.Origin, d.Destination)
	if err != nil {
		return entity.PriceQuote{}, err
	}

	if !d.Price.Total.IsPositive() {
		return entity.PriceQuote{}, fmt.Errorf("non-positive price %s", d.Price.Total)
	}

	currency, err := value.ParseCurrency(lo.CoalesceOrEmpty(d.Price.Currency, fallbackCurrency))
	if err != nil {
		return entity.PriceQuote{}, err
	}

	return entity.PriceQuote{
		Route:         route,
		Cabin:         value.CabinEconomy,
		DepartureDate: parseDate(d.DepartureDate),
		ReturnDate:    parseDate(d.ReturnDate),
		Price:         d.Price.Total,
		Currency:      currency,
		Source:        Name,
	}, nil
}

type offersResponse struct {
	Data         []flightOffer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type flightOffer struct {
	ID                     string   `json:"id"`
	Price                  price    `json:"price"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
}

// LiveOffers runs a flight offers search against bookable inventory.
func (c *Client) LiveOffers(ctx context.Context, query entity.LiveQuery) ([]entity.LiveOffer, error) {
	adults := max(query.Adults, 1)
	currency := value.CurrencyForAirport(query.Route.Origin)

	q := url.Values{}
	q.Set("originLocationCode", query.Route.Origin)
	q.Set("destinationLocationCode", query.Route.Destination)
	q.Set("departureDate", query.DepartureDate.Format(dateLayout))
	q.Set("adults", strconv.Itoa(adults))
	q.Set("travelClass", travelClass(query.Cabin))
	q.Set("currencyCode", currency.String())
	q.Set("max", strconv.Itoa(maxOffers))

	if query.ReturnDate != nil {
		q.Set("returnDate", query.ReturnDate.Format(dateLayout))
	}

	var body offersResponse
	if err := c.get(ctx, "/v2/shopping/flight-offers", q, &body); err != nil {
		return nil, err
	}

	offers := make([]entity.LiveOffer, 0, len(body.Data))

	for _, o := range body.Data {
		total := o.Price.GrandTotal
		if total.IsZero() {
			total = o.Price.Total
		}

		offerCurrency, err := value.ParseCurrency(lo.CoalesceOrEmpty(o.Price.Currency, currency.String()))
		if err != nil {
			continue
		}

		offers = append(offers, entity.LiveOffer{
			OfferID:       o.ID,
			Price:         total,
			Currency:      offerCurrency,
			Airline:       carrierName(o.ValidatingAirlineCodes, body.Dictionaries.Carriers),
			Cabin:         query.Cabin,
			DepartureDate: query.DepartureDate,
			ReturnDate:    query.ReturnDate,
			Source:        Name,
		})
	}

	return offers, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}

	return provider.Decode(resp, Name, dst)
}

func travelClass(cabin value.CabinClass) string {
	if cabin == "" {
		cabin = value.CabinEconomy
	}

	return strings.ToUpper(string(cabin))
}

func carrierName(codes []string, carriers map[string]string) string {
	if len(codes) == 0 {
		return ""
	}

	if name, ok := carriers[codes[0]]; ok {
		return name
	}

	return codes[0]
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
