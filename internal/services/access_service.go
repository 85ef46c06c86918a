// internal/services/access_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const (
	accessKeysCacheKey = "access_keys"
	accessKeysTTL      = 5 * time.Minute
	accessFetchTimeout = 10 * time.Second
	maxKeyListBytes    = 1 << 20
)

var keyLineSplitter = regexp.MustCompile(`\r?\n`)

// AccessService checks unlock keys against a remote CSV list plus static keys
type AccessService struct {
	url        string
	staticKeys []string
	client     *http.Client
	cache      *gocache.Cache
	group      singleflight.Group
}

// NewAccessService url may be empty, in which case only static keys are accepted
func NewAccessService(url string, staticKeys []string) *AccessService {
	keys := make([]string, 0, len(staticKeys))
	for _, k := range staticKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &AccessService{
		url:        strings.TrimSpace(url),
		staticKeys: keys,
		client:     &http.Client{Timeout: accessFetchTimeout},
		cache:      gocache.New(accessKeysTTL, 10*time.Minute),
	}
}

// Enabled reports whether any key source is configured
func (s *AccessService) Enabled() bool {
	return s.url != "" || len(s.staticKeys) > 0
}

// Verify reports whether key is on the list. A failed list fetch is an error,
// not a rejection.
func (s *AccessService) Verify(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	for _, k := range s.staticKeys {
		if k == key {
			return true, nil
		}
	}
	if s.url == "" {
		return false, nil
	}

	keys, err := s.remoteKeys(ctx)
	if err != nil {
		utils.GetLogger().Error("fetching access key list failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false, apperrors.NewAppError(apperrors.ErrorTypeExternalCall, apperrors.MsgAuthFailed, err)
	}
	_, ok := keys[key]
	return ok, nil
}

// remoteKeys returns the cached list or fetches it once for all concurrent callers
func (s *AccessService) remoteKeys(ctx context.Context) (map[string]struct{}, error) {
	if cached, ok := s.cache.Get(accessKeysCacheKey); ok {
		return cached.(map[string]struct{}), nil
	}

	ch := s.group.DoChan(accessKeysCacheKey, func() (interface{}, error) {
		// detached so one caller giving up does not fail the others
		fetchCtx, cancel := context.WithTimeout(context.Background(), accessFetchTimeout)
		defer cancel()

		keys, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(accessKeysCacheKey, keys)
		return keys, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]struct{}), nil
	}
}

func (s *AccessService) fetch(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s (status %d)", apperrors.MsgKeyListFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyListBytes))
	if err != nil {
		return nil, err
	}
	return ParseKeyList(string(body)), nil
}

// ParseKeyList splits a one-key-per-line CSV, trimming and dropping blank lines
func ParseKeyList(body string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, line := range keyLineSplitter.Split(body, -1) {
		if line = strings.TrimSpace(line); line != "" {
			keys[line] = struct{}{}
		}
	}
	return keys
}

// Invalidate drops the cached list so the next Verify refetches
func (s *AccessService) Invalidate() {
	s.cache.Delete(accessKeysCacheKey)
}
