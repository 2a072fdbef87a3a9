package req

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"fareglitch/pkg/errcodes"
)

// MaxBodyBytes caps request bodies; API payloads are a handful of fields.
const MaxBodyBytes = 64 << 10

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals // skip
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip
)

// Read decodes a JSON body into dest and validates it. An empty body decodes
// as {} so that validation still applies to required fields.
func Read(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return failure.NewInvalidArgumentError(
			fmt.Errorf("json.Decode: %w", err).Error(),
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription("Invalid JSON"),
		)
	}

	if err := validate.StructCtx(r.Context(), dest); err != nil {
		return failure.NewInvalidArgumentError(
			"validation error",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(describe(err)),
		)
	}

	return nil
}

// describe renders validator errors as "field: rule" pairs.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		part := fe.Namespace() + ": " + fe.Tag()
		if fe.Param() != "" {
			part += "=" + fe.Param()
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, "; ")
}
