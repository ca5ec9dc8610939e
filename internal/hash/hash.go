package hash

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/twmb/murmur3"
)

// Fingerprint contains MMH3 hashes of a retrieved response. Two scans of an
// unchanged site produce identical fingerprints, which lets callers spot
// content drift between cached and fresh results.
type Fingerprint struct {
	BodyMMH3   string `json:"body_mmh3"`
	HeaderMMH3 string `json:"header_mmh3"`
}

// Calculate builds the fingerprint for a response body and header set.
func Calculate(body []byte, headers http.Header) Fingerprint {
	return Fingerprint{
		BodyMMH3:   CalculateMMH3(body),
		HeaderMMH3: CalculateHeaderMMH3(headers),
	}
}

// CalculateMMH3 calculates the MMH3 hash of the data
func CalculateMMH3(data []byte) string {
	h := murmur3.Sum32(data)
	return fmt.Sprintf("%d", h)
}

// CalculateHeaderMMH3 calculates the MMH3 hash of concatenated headers
func CalculateHeaderMMH3(headers http.Header) string {
	// Sort headers for consistent hashing
	var keys []string
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	estimatedSize := 0
	for k, vals := range headers {
		for _, v := range vals {
			estimatedSize += len(k) + 2 + len(v) + 1 // "key: value\n"
		}
	}

	var headerStr strings.Builder
	headerStr.Grow(estimatedSize)
	for _, k := range keys {
		for _, v := range headers[k] {
			headerStr.WriteString(k)
			headerStr.WriteString(": ")
			headerStr.WriteString(v)
			headerStr.WriteString("\n")
		}
	}

	return CalculateMMH3([]byte(headerStr.String()))
}
