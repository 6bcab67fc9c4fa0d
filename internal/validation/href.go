package validation

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"

	"hearth/internal/models"
)

const hrefNormalizeFlags = purell.FlagsSafe | purell.FlagRemoveDotSegments | purell.FlagRemoveDuplicateSlashes

// NormalizeHref accepts absolute http(s) URLs with a host and returns their
// normalized form.
func NormalizeHref(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", models.NewKeyedError(models.KeyPostHrefInvalid).WithCause(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return "", models.NewKeyedError(models.KeyPostHrefInvalid)
	}
	return purell.NormalizeURL(u, hrefNormalizeFlags), nil
}
