package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// ForecastBucket returns the coarse time bucket for forecast cache keys:
// the date plus the hour floored to a multiple of three, e.g. 20230102T09.
// The bucket is computed in t's own location.
func ForecastBucket(t time.Time) string {
	return fmt.Sprintf("%04d%02d%02dT%02d", t.Year(), t.Month(), t.Day(), t.Hour()-t.Hour()%3)
}

// ForecastFingerprint keys a forecast query by URL and three-hour bucket
func ForecastFingerprint(queryURL string, now time.Time) string {
	return hash(queryURL + ForecastBucket(now))
}

// ObservationFingerprint keys an observation query by URL only; historical data does not change
func ObservationFingerprint(queryURL string) string {
	return hash(queryURL)
}

// FileName returns the cache file name for a fingerprint
func FileName(fingerprint string) string {
	return fingerprint + ".json"
}

func hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
