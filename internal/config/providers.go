package config

import "time"

const (
	ProviderTravelpayouts = "travelpayouts"
	ProviderAmadeus       = "amadeus"
	ProviderDuffel        = "duffel"
)

type Providers struct {
	Candidate      string        `env:"CANDIDATE_PROVIDER" envDefault:"travelpayouts"`
	Live           string        `env:"LIVE_PROVIDER" envDefault:"amadeus"`
	Timeout        time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
	CandidateCache time.Duration `env:"PROVIDER_CANDIDATE_CACHE_TTL" envDefault:"30m"`

	Amadeus       Amadeus
	Travelpayouts Travelpayouts
	Duffel        Duffel
	FX            FX
}

type Amadeus struct {
	BaseURL      string `env:"AMADEUS_BASE_URL" envDefault:"https://test.api.amadeus.com"`
	ClientID     string `env:"AMADEUS_CLIENT_ID"`
	ClientSecret string `env:"AMADEUS_CLIENT_SECRET" json:"-"`
}

type Travelpayouts struct {
	BaseURL string `env:"TRAVELPAYOUTS_BASE_URL" envDefault:"https://api.travelpayouts.com"`
	Token   string `env:"TRAVELPAYOUTS_TOKEN" json:"-"`
}

type Duffel struct {
	BaseURL     string `env:"DUFFEL_BASE_URL" envDefault:"https://api.duffel.com"`
	AccessToken string `env:"DUFFEL_ACCESS_TOKEN" json:"-"`
}

type FX struct {
	BaseURL  string        `env:"FX_BASE_URL" envDefault:"https://api.exchangerate-api.com"`
	CacheTTL time.Duration `env:"FX_CACHE_TTL" envDefault:"6h"`
}
