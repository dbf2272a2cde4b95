package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/security"
)

const (
	NumberFormatDated     = "dated"
	NumberFormatTimestamp = "timestamp"

	datedPrefix      = "AG"
	defaultPrefix    = "ORD"
	numberSuffixSize = 6
)

// NumberGenerator returns a new human facing order number.
type NumberGenerator func(now time.Time) (string, error)

// NewNumberGenerator builds a generator for the configured format:
// "dated" gives AG-YYYYMMDD-XXXXXX, "timestamp" gives PREFIX-<unix ms>-XXXXXX.
// Uniqueness is left to the orders.order_number index.
func NewNumberGenerator(format, prefix string) NumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultPrefix
	}
	if strings.EqualFold(strings.TrimSpace(format), NumberFormatTimestamp) {
		return func(now time.Time) (string, error) {
			suffix, err := security.RandomString(numberSuffixSize, security.UpperAlnum)
			if err != nil {
				return "", err
			}
			return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix, nil
		}
	}
	return func(now time.Time) (string, error) {
		suffix, err := security.RandomString(numberSuffixSize, security.UpperAlnum)
		if err != nil {
			return "", err
		}
		return datedPrefix + "-" + now.UTC().Format("20060102") + "-" + suffix, nil
	}
}
