package httpx

import "fareglitch/pkg/logx"

type Option func(*LoggingRoundTripper)

// WithName tags every logged exchange with the upstream's name.
func WithName(name string) Option {
	return func(rt *LoggingRoundTripper) {
		rt.name = name
	}
}

func WithLogFieldMaxLen(logFieldMaxLen int) Option {
	return func(rt *LoggingRoundTripper) {
		rt.logFieldMaxLen = logFieldMaxLen
	}
}

func WithSensitiveDataMasker(masker logx.SensitiveDataMaskerInterface) Option {
	return func(rt *LoggingRoundTripper) {
		rt.masker = masker
	}
}
