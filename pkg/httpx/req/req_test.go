package req_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/req"
	"fareglitch/pkg/rest"
)

func TestRead(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		wantErr     bool
		description string
		origins     []string
	}{
		{name: "Valid", body: `{"origins":["JFK","LAX"]}`, origins: []string{"JFK", "LAX"}},
		{name: "Empty body", body: ``},
		{name: "Malformed", body: `{"origins":`, wantErr: true, description: "Invalid JSON"},
		{
			name:        "Bad origin",
			body:        `{"origins":["JFKX"]}`,
			wantErr:     true,
			description: "ScanRequest.Origins[0]: len=3",
		},
		{name: "Too large", body: `{"origins":["` + strings.Repeat("A", req.MaxBodyBytes) + `"]}`, wantErr: true, description: "Invalid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			r := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(tc.body))

			var dest rest.ScanRequest

			err := req.Read(r, &dest)
			if !tc.wantErr {
				rq.NoError(err)
				rq.Equal(tc.origins, dest.Origins)

				return
			}

			rq.Error(err)
			rq.True(failure.IsInvalidArgumentError(err))
			rq.Equal(errcodes.ValidationError, failure.Code(err))
			rq.Equal(tc.description, failure.Description(err))
		})
	}
}
