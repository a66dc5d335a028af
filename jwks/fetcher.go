// Package jwks fetches and caches identity providers' public signing keys.
// Entries are never expired by time: a token referencing an unknown key id
// forces one refetch, which models real-world key rotation without a
// background refresh loop.
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"time"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/pkg/errors"
)

const fetchTimeout = 10 * time.Second

// Fetcher retrieves a provider's current key set, keyed by key id.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]*rsa.PublicKey, error)
}

// jwkSet mirrors the published JWKS document shape.
type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// jwk is a single JSON Web Key. Only RSA signature keys are consumed.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher fetches JWKS documents over HTTPS with a bounded timeout.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client gets a default with a
// 10s timeout so a slow key source can never hang a login.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher. Every failure mode maps to
// errors.ErrKeySourceUnavailable; a partial or malformed document never
// yields a partial key set.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPFetcher.Fetch] NewRequest")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrapf(errorsx.ErrKeySourceUnavailable, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorsx.Wrapf(errorsx.ErrKeySourceUnavailable, "fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errorsx.Wrapf(errorsx.ErrKeySourceUnavailable, "reading %s: %v", url, err)
	}

	var set jwkSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, errorsx.Wrapf(errorsx.ErrKeySourceUnavailable, "decoding %s: %v", url, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.toRSAPublicKey()
		if err != nil {
			return nil, errorsx.Wrapf(errorsx.ErrKeySourceUnavailable, "parsing key %s: %v", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

func (k jwk) toRSAPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, errors.Wrap(err, "decoding modulus")
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, errors.Wrap(err, "decoding exponent")
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 || e.Int64() > 1<<31 {
		return nil, errors.New("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
