package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/song-league/internal/platform/cache"
)

func TestNewSignedURLProvider_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewSignedURLProvider(SignedURLConfig{Secret: "s"}, nil); err == nil {
		t.Fatalf("expected error for missing base url")
	}
	if _, err := NewSignedURLProvider(SignedURLConfig{BaseURL: "https://media.example.com"}, nil); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}

func TestSignedURL_SignatureAndExpiry(t *testing.T) {
	t.Parallel()

	provider, err := NewSignedURLProvider(SignedURLConfig{
		BaseURL: "https://media.example.com/",
		Secret:  "topsecret",
		TTL:     10 * time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("NewSignedURLProvider error: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	signed, err := provider.SignedURL(context.Background(), "audio/track 01.mp3")
	if err != nil {
		t.Fatalf("SignedURL error: %v", err)
	}

	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.HasPrefix(signed, "https://media.example.com/audio/") {
		t.Fatalf("unexpected url prefix: %s", signed)
	}
	if strings.Contains(parsed.Path, " ") {
		t.Fatalf("path must be escaped: %s", parsed.Path)
	}

	expires := parsed.Query().Get("expires")
	if want := strconv.FormatInt(now.Add(10*time.Minute).Unix(), 10); expires != want {
		t.Fatalf("unexpected expires: got=%s want=%s", expires, want)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte("audio/track 01.mp3"))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	if want := hex.EncodeToString(mac.Sum(nil)); parsed.Query().Get("sig") != want {
		t.Fatalf("signature mismatch: got=%s want=%s", parsed.Query().Get("sig"), want)
	}
}

func TestSignedURL_EmptyKeyRejected(t *testing.T) {
	t.Parallel()

	provider, err := NewSignedURLProvider(SignedURLConfig{BaseURL: "https://media.example.com", Secret: "s"}, nil)
	if err != nil {
		t.Fatalf("NewSignedURLProvider error: %v", err)
	}

	if _, err := provider.SignedURL(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestSignedURL_CachesResolvedURL(t *testing.T) {
	t.Parallel()

	provider, err := NewSignedURLProvider(SignedURLConfig{
		BaseURL: "https://media.example.com",
		Secret:  "topsecret",
		TTL:     10 * time.Minute,
	}, cache.NewStore(time.Minute))
	if err != nil {
		t.Fatalf("NewSignedURLProvider error: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	first, err := provider.SignedURL(context.Background(), "audio/a.mp3")
	if err != nil {
		t.Fatalf("SignedURL error: %v", err)
	}

	// A later clock would change the signature; the cache must still return the
	// first URL.
	provider.now = func() time.Time { return now.Add(30 * time.Second) }
	second, err := provider.SignedURL(context.Background(), "audio/a.mp3")
	if err != nil {
		t.Fatalf("SignedURL error: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached url, got %s then %s", first, second)
	}
}
