package game

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const dictionaryTimeout = 3 * time.Second

// DictionaryChecker asks an external dictionary service whether a word
// exists. The service answers 200 for a known word and 404 for an unknown
// one. Anything else, including timeouts, triggers the fallback policy:
// words longer than 2 characters are accepted so an unreachable dictionary
// never stalls the turn cycle.
type DictionaryChecker struct {
	baseURL string
	client  *http.Client
}

func NewDictionaryChecker(baseURL string) *DictionaryChecker {
	return &DictionaryChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: dictionaryTimeout},
	}
}

// NewDictionaryCheckerWithClient exists for tests that need a short timeout.
func NewDictionaryCheckerWithClient(baseURL string, client *http.Client) *DictionaryChecker {
	return &DictionaryChecker{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (d *DictionaryChecker) Check(ctx context.Context, word string) bool {
	lookup := fmt.Sprintf("%s/%s", d.baseURL, url.PathEscape(strings.ToLower(word)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup, nil)
	if err != nil {
		log.Error().Err(err).Str("word", word).Msg("bad dictionary request")
		return d.fallback(word)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("word", word).Msg("dictionary lookup failed, applying fallback")
		return d.fallback(word)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true
	case http.StatusNotFound:
		return false
	default:
		log.Warn().Int("status", resp.StatusCode).Str("word", word).Msg("unexpected dictionary status, applying fallback")
		return d.fallback(word)
	}
}

func (d *DictionaryChecker) fallback(word string) bool {
	return utf8.RuneCountInString(word) > 2
}
