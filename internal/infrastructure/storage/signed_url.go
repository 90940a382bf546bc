package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/song-league/internal/platform/cache"
)

// SignedURLProvider resolves stored media keys into expiring signed URLs.
// Resolved URLs are cached with a TTL shorter than the signature lifetime so
// a cache hit can never hand out an expired link.
type SignedURLProvider struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	cache   *cache.Store
	now     func() time.Time
}

type SignedURLConfig struct {
	BaseURL string
	Secret  string
	TTL     time.Duration
}

func NewSignedURLProvider(cfg SignedURLConfig, urlCache *cache.Store) (*SignedURLProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("media base url is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("media signing secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &SignedURLProvider{
		baseURL: baseURL,
		secret:  []byte(cfg.Secret),
		ttl:     ttl,
		cache:   urlCache,
		now:     time.Now,
	}, nil
}

func (p *SignedURLProvider) SignedURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("media key is required")
	}

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, cacheKey(key)); ok {
			if signed, ok := cached.(string); ok {
				return signed, nil
			}
		}
	}

	expiresAt := p.now().Add(p.ttl).Unix()
	signed := p.sign(key, expiresAt)

	if p.cache != nil {
		p.cache.Set(ctx, cacheKey(key), signed)
	}

	return signed, nil
}

func (p *SignedURLProvider) sign(key string, expiresAt int64) string {
	expires := strconv.FormatInt(expiresAt, 10)

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))

	query := url.Values{}
	query.Set("expires", expires)
	query.Set("sig", hex.EncodeToString(mac.Sum(nil)))

	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}

	return p.baseURL + "/" + strings.Join(escaped, "/") + "?" + query.Encode()
}

func cacheKey(key string) string {
	return "media-url:" + key
}
