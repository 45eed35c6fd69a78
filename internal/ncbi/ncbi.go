package ncbi

// Package ncbi fetches nucleotide sequences from NCBI E-utilities by
// accession and keeps a small JSON file cache of the results.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"gccontent/internal/fasta"
)

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// efetchURL is the E-utilities efetch endpoint.
var efetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

const maxAttempts = 3

// logger receives non-fatal problems such as cache write failures.
var logger = log.Default()

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

// ErrNotFound is returned (wrapped) when some accessions were not present in
// the NCBI response.
var ErrNotFound = errors.New("accession not found")

// Cache structures
type cachedEntry struct {
	ID          string `json:"id"`
	Sequence    string `json:"sequence"`
	RetrievedAt int64  `json:"retrieved_at"`
}

var (
	cacheMu       sync.RWMutex
	cache         map[string]cachedEntry
	cacheLoaded   bool
	cacheFilePath string
	cacheTTLSecs  int64 = 7 * 24 * 3600
)

// SetCacheFilePath overrides the cache location. It must be called before the
// first fetch.
func SetCacheFilePath(p string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheFilePath = p
	cacheLoaded = false
}

// SetCacheTTLSeconds sets how long cached sequences stay valid; 0 or less
// keeps entries forever.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

// FlushCache writes the in-memory cache to disk.
func FlushCache() error {
	loadCache()
	return saveCache()
}

func defaultCachePath() string {
	if cacheFilePath != "" {
		return cacheFilePath
	}
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "gccontent")
		_ = os.MkdirAll(p, 0o755)
		return filepath.Join(p, "ncbi_cache.json")
	}
	return filepath.Join(os.TempDir(), "gccontent_ncbi_cache.json")
}

func loadCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheLoaded {
		return
	}
	cache = make(map[string]cachedEntry)
	data, err := os.ReadFile(defaultCachePath())
	if err == nil {
		_ = json.Unmarshal(data, &cache)
	}
	cacheLoaded = true
}

func saveCache() error {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	b, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	path := defaultCachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func getCached(acc string) (fasta.Record, bool) {
	loadCache()
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	e, ok := cache[acc]
	if !ok {
		return fasta.Record{}, false
	}
	if cacheTTLSecs > 0 && time.Now().Unix()-e.RetrievedAt > cacheTTLSecs {
		return fasta.Record{}, false
	}
	return fasta.Record{ID: e.ID, Sequence: e.Sequence}, true
}

func setCached(acc string, rec fasta.Record) {
	if acc == "" || rec.Sequence == "" {
		return
	}
	loadCache()
	cacheMu.Lock()
	cache[acc] = cachedEntry{ID: rec.ID, Sequence: rec.Sequence, RetrievedAt: time.Now().Unix()}
	cacheMu.Unlock()
}

// matchAccession reports whether a FASTA header ID returned by NCBI refers to
// acc. Unversioned accessions match any version; legacy "gi|..|ref|ACC|"
// identifiers are recognised.
func matchAccession(id, acc string) bool {
	if id == acc || strings.HasPrefix(id, acc+".") {
		return true
	}
	for _, part := range strings.Split(id, "|") {
		if part == acc || strings.HasPrefix(part, acc+".") {
			return true
		}
	}
	return false
}

// FetchFasta returns one record per accession, in the order given. Cached
// sequences are served without a request; the rest are fetched in a single
// efetch call. A cache that cannot be written is logged, not returned. If
// some accessions are missing from the response, the records that were found
// are returned together with an error wrapping ErrNotFound.
func FetchFasta(ctx context.Context, accessions []string) ([]fasta.Record, error) {
	found := make(map[string]fasta.Record, len(accessions))
	var pending []string
	for _, acc := range accessions {
		acc = strings.TrimSpace(acc)
		if acc == "" {
			continue
		}
		if rec, ok := getCached(acc); ok {
			found[acc] = rec
			continue
		}
		pending = append(pending, acc)
	}

	if len(pending) > 0 {
		text, err := efetch(ctx, pending)
		if err != nil {
			return nil, err
		}
		recs := fasta.ParseString(text)
		for _, acc := range pending {
			for _, rec := range recs {
				if matchAccession(rec.ID, acc) {
					found[acc] = rec
					setCached(acc, rec)
					break
				}
			}
		}
		// the fetched records are still good when the cache cannot be written
		if err := saveCache(); err != nil {
			logger.Warn("could not write ncbi cache", "path", defaultCachePath(), "err", err)
		}
	}

	var out []fasta.Record
	var missing []string
	for _, acc := range accessions {
		acc = strings.TrimSpace(acc)
		if acc == "" {
			continue
		}
		if rec, ok := found[acc]; ok {
			out = append(out, rec)
		} else {
			missing = append(missing, acc)
		}
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ","))
	}
	return out, nil
}

// efetch downloads FASTA text for ids, retrying on 429 and transport errors.
func efetch(ctx context.Context, ids []string) (string, error) {
	q := url.Values{}
	q.Set("db", "nuccore")
	q.Set("id", strings.Join(ids, ","))
	q.Set("rettype", "fasta")
	q.Set("retmode", "text")
	if apiKey := os.Getenv("NCBI_API_KEY"); apiKey != "" {
		q.Set("api_key", apiKey)
	}
	reqURL := efetchURL + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", "gccontent-fetcher/1.0")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			if werr := wait(ctx, time.Duration(attempt*300)*time.Millisecond); werr != nil {
				return "", werr
			}
			continue
		}
		body, rerr := io.ReadAll(resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
			if rerr != nil {
				return "", rerr
			}
			return string(body), nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("ncbi efetch returned 429")
			delay := time.Duration(attempt*500) * time.Millisecond
			if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
				delay = time.Duration(s) * time.Second
			}
			if werr := wait(ctx, delay); werr != nil {
				return "", werr
			}
		default:
			return "", fmt.Errorf("ncbi efetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
	return "", lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
