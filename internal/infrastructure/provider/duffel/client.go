package duffel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/provider"
)

const (
	Name           = "duffel"
	DefaultBaseURL = "https://api.duffel.com"
	APIVersion     = "v2"

	dateLayout = "2006-01-02"
)

var errEmptyToken = errors.New("duffel access token is not configured")

type Config struct {
	BaseURL        string
	AccessToken    string
	Timeout        time.Duration
	LogFieldMaxLen int
}

// staticToken satisfies the bearer round tripper for a long-lived API token.
type staticToken string

func (t staticToken) Authenticate(context.Context) error {
	if t == "" {
		return errEmptyToken
	}

	return nil
}

func (t staticToken) BearerToken() string {
	return string(t)
}

// Client prices live itineraries through offer requests.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    provider.NewHTTPClient(Name, cfg.Timeout, cfg.LogFieldMaxLen, staticToken(cfg.AccessToken)),
	}
}

func (c *Client) Name() string {
	return Name
}

type slice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type passenger struct {
	Type string `json:"type"`
}

type offerRequest struct {
	Data struct {
		Slices     []slice     `json:"slices"`
		Passengers []passenger `json:"passengers"`
		CabinClass string      `json:"cabin_class"`
	} `json:"data"`
}

type offerRequestResponse struct {
	Data struct {
		ID     string  `json:"id"`
		Offers []offer `json:"offers"`
	} `json:"data"`
}

type offer struct {
	ID            string          `json:"id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalCurrency string          `json:"total_currency"`
	Owner         struct {
		Name     string `json:"name"`
		IATACode string `json:"iata_code"`
	} `json:"owner"`
}

func (c *Client) LiveOffers(ctx context.Context, query entity.LiveQuery) ([]entity.LiveOffer, error) {
	payload, err := jsoniter.Marshal(newOfferRequest(query))
	if err != nil {
		return nil, fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/air/offer_requests?return_offers=true",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Duffel-Version", APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}

	var body offerRequestResponse
	if err = provider.Decode(resp, Name, &body); err != nil {
		return nil, err
	}

	offers := make([]entity.LiveOffer, 0, len(body.Data.Offers))

	for _, o := range body.Data.Offers {
		currency, err := value.ParseCurrency(o.TotalCurrency)
		if err != nil {
			continue
		}

		offers = append(offers, entity.LiveOffer{
			OfferID:       o.ID,
			Price:         o.TotalAmount,
			Currency:      currency,
			Airline:       lo.CoalesceOrEmpty(o.Owner.Name, o.Owner.IATACode),
			Cabin:         query.Cabin,
			DepartureDate: query.DepartureDate,
			ReturnDate:    query.ReturnDate,
			Source:        Name,
		})
	}

	return offers, nil
}

func newOfferRequest(query entity.LiveQuery) offerRequest {
	var r offerRequest

	r.Data.Slices = []slice{{
		Origin:        query.Route.Origin,
		Destination:   query.Route.Destination,
		DepartureDate: query.DepartureDate.Format(dateLayout),
	}}

	if query.ReturnDate != nil {
		r.Data.Slices = append(r.Data.Slices, slice{
			Origin:        query.Route.Destination,
			Destination:   query.Route.Origin,
			DepartureDate: query.ReturnDate.Format(dateLayout),
		})
	}

	r.Data.Passengers = lo.Times(max(query.Adults, 1), func(int) passenger {
		return passenger{Type: "adult"}
	})

	r.Data.CabinClass = string(lo.CoalesceOrEmpty(query.Cabin, value.CabinEconomy))

	return r
}
