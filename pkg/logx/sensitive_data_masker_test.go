package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fareglitch/pkg/logx"
)

func TestSensitiveDataMaskerMask(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name   string
		input  []byte
		output []byte
	}{
		{
			name:   "Bearer header",
			input:  []byte("GET /v1/deals HTTP/1.1\r\nAuthorization: Bearer abc.def\r\n"),
			output: []byte("GET /v1/deals HTTP/1.1\r\nAuthorization: Bearer [MASKED]\r\n"),
		},
		{
			name:   "OAuth token response",
			input:  []byte(`{"type":"amadeusOAuth2Token","access_token":"X9kLQ2","expires_in":1799}`),
			output: []byte(`{"type":"amadeusOAuth2Token","access_token":"[MASKED]","expires_in":1799}`),
		},
		{
			name:   "Client credentials form",
			input:  []byte("grant_type=client_credentials&client_id=id&client_secret=s3cr3t"),
			output: []byte("grant_type=client_credentials&client_id=id&client_secret=[MASKED]"),
		},
		{
			name:   "Query token",
			input:  []byte("GET /v2/prices/latest?origin=JFK&token=abc123&limit=30 HTTP/1.1"),
			output: []byte("GET /v2/prices/latest?origin=JFK&token=[MASKED]&limit=30 HTTP/1.1"),
		},
		{
			name:   "Subscriber contact details",
			input:  []byte(`{"email": "jane@example.com", "phone_number": "+15551234567", "type": "sms_monthly"}`),
			output: []byte(`{"email": "[MASKED]", "phone_number": "[MASKED]", "type": "sms_monthly"}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			output := masker.Mask(tc.input)

			rq.Equal(tc.output, output, "%s vs %s", tc.output, output)
		})
	}
}
