package value

import (
	"regexp"
	"strings"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
)

var dealNumberRe = regexp.MustCompile(`^(MF|VD)\d{3,}$`) //nolint:gochecknoglobals

// ParseDealNumber normalizes a deal number such as "mf014".
func ParseDealNumber(s string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	if !dealNumberRe.MatchString(n) {
		return "", domain.Errorf(errcodes.InvalidDealNumber, "invalid deal number %q", s)
	}

	return n, nil
}
