// Package words provides the external word-validity check. The lookup is a
// remote dictionary API and is treated as slow and unreliable: any transport
// error, timeout, or non-200 response means "not a word" so a broken
// dictionary cannot stall a round.
package words

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAPIBaseURL is the free dictionary endpoint used when no override is
// configured; set DICTIONARY_API_URL to point elsewhere.
const DefaultAPIBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// Validator decides whether a normalized lowercase alphabetic string is a
// real word.
type Validator interface {
	IsValid(ctx context.Context, word string) bool
}

// APIValidator implements Validator against a dictionaryapi.dev-style HTTP
// endpoint: GET <base>/<word> returns 200 iff the word exists.
type APIValidator struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewAPIValidator builds a validator for the given base URL. The per-lookup
// timeout bounds how long a submission can stay suspended.
func NewAPIValidator(baseURL string, timeout time.Duration, logger *logrus.Logger) *APIValidator {
	return &APIValidator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

var _ Validator = (*APIValidator)(nil)

// IsValid reports whether the dictionary knows the word. Fails closed.
func (v *APIValidator) IsValid(ctx context.Context, word string) bool {
	if len(word) < 1 {
		return false
	}

	endpoint := fmt.Sprintf("%s/%s", v.baseURL, url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		v.logger.WithError(err).Warn("dictionary request build failed")
		return false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.WithFields(logrus.Fields{
			"word":  word,
			"error": err,
		}).Warn("dictionary lookup failed, treating word as invalid")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Normalize trims the raw submission, lowercases it, and strips everything
// that is not an ASCII letter.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
