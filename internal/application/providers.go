package application

import (
	"fmt"

	"fareglitch/internal/config"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/infrastructure/provider/amadeus"
	"fareglitch/internal/infrastructure/provider/duffel"
	"fareglitch/internal/infrastructure/provider/fx"
	"fareglitch/internal/infrastructure/provider/travelpayouts"
)

type providerSet struct {
	candidates pipeline.CandidateSource
	live       verify.LiveProvider
	fx         *fx.Converter
}

// newProviders builds the configured candidate and live providers. Amadeus
// is shared when it serves both roles so they reuse one OAuth token.
func newProviders(cfg config.Providers, logFieldMaxLen int) (providerSet, error) {
	set := providerSet{
		fx: fx.NewConverter(fx.Config{
			BaseURL:        cfg.FX.BaseURL,
			Timeout:        cfg.Timeout,
			LogFieldMaxLen: logFieldMaxLen,
			CacheTTL:       cfg.FX.CacheTTL,
		}),
	}

	var amadeusClient *amadeus.Client

	useAmadeus := func() (*amadeus.Client, error) {
		if amadeusClient != nil {
			return amadeusClient, nil
		}

		if cfg.Amadeus.ClientID == "" || cfg.Amadeus.ClientSecret == "" {
			return nil, fmt.Errorf("amadeus requires AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET")
		}

		amadeusClient = amadeus.NewClient(amadeus.Config{
			BaseURL:        cfg.Amadeus.BaseURL,
			ClientID:       cfg.Amadeus.ClientID,
			ClientSecret:   cfg.Amadeus.ClientSecret,
			Timeout:        cfg.Timeout,
			LogFieldMaxLen: logFieldMaxLen,
			CacheTTL:       cfg.CandidateCache,
		})

		return amadeusClient, nil
	}

	switch cfg.Candidate {
	case config.ProviderTravelpayouts:
		if cfg.Travelpayouts.Token == "" {
			return providerSet{}, fmt.Errorf("travelpayouts requires TRAVELPAYOUTS_TOKEN")
		}

		set.candidates = travelpayouts.NewClient(travelpayouts.Config{
			BaseURL:        cfg.Travelpayouts.BaseURL,
			Token:          cfg.Travelpayouts.Token,
			Timeout:        cfg.Timeout,
			LogFieldMaxLen: logFieldMaxLen,
			CacheTTL:       cfg.CandidateCache,
		})
	case config.ProviderAmadeus:
		c, err := useAmadeus()
		if err != nil {
			return providerSet{}, err
		}

		set.candidates = c
	default:
		return providerSet{}, fmt.Errorf("unknown candidate provider %q", cfg.Candidate)
	}

	switch cfg.Live {
	case config.ProviderAmadeus:
		c, err := useAmadeus()
		if err != nil {
			return providerSet{}, err
		}

		set.live = c
	case config.ProviderDuffel:
		if cfg.Duffel.AccessToken == "" {
			return providerSet{}, fmt.Errorf("duffel requires DUFFEL_ACCESS_TOKEN")
		}

		set.live = duffel.NewClient(duffel.Config{
			BaseURL:        cfg.Duffel.BaseURL,
			AccessToken:    cfg.Duffel.AccessToken,
			Timeout:        cfg.Timeout,
			LogFieldMaxLen: logFieldMaxLen,
		})
	default:
		return providerSet{}, fmt.Errorf("unknown live provider %q", cfg.Live)
	}

	return set, nil
}
