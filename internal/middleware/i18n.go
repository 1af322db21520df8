package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Region is the locale and country negotiated for a request.
type Region struct {
	Locale  string
	Country string
}

type regionContextKey struct{}

const fallbackLocale = "en"

var (
	// label translations exist for these; everything else renders in English
	supportedLocales = []language.Tag{language.English, language.Indonesian}
	localeMatcher    = language.NewMatcher(supportedLocales)

	countryHeaders = []string{"CF-IPCountry", "X-Country-Code", "X-Appengine-Country"}
)

// I18N negotiates the request locale and country. The country feeds the
// user record at registration; the locale drives category labels.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	if defaultLocale == "" {
		defaultLocale = fallbackLocale
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg := Region{
				Locale:  negotiateLocale(r, defaultLocale),
				Country: ResolveCountry(r, lookup),
			}
			next.ServeHTTP(w, r.WithContext(WithRegion(r.Context(), reg)))
		})
	}
}

// WithRegion stores reg on ctx.
func WithRegion(ctx context.Context, reg Region) context.Context {
	return context.WithValue(ctx, regionContextKey{}, reg)
}

func regionFrom(ctx context.Context) Region {
	reg, _ := ctx.Value(regionContextKey{}).(Region)
	return reg
}

// LocaleFromContext returns the negotiated locale, "en" when none was set.
func LocaleFromContext(ctx context.Context) string {
	if loc := regionFrom(ctx).Locale; loc != "" {
		return loc
	}
	return fallbackLocale
}

// CountryFromContext returns the upper-case ISO country code or "".
func CountryFromContext(ctx context.Context) string {
	return regionFrom(ctx).Country
}

func negotiateLocale(r *http.Request, fallback string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return matchLocale(tag)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return matchLocale(tags...)
	}
	return fallback
}

func matchLocale(tags ...language.Tag) string {
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return fallbackLocale
	}
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// ResolveCountry picks the country from proxy headers, then the region
// subtag of the preferred language, then a GeoIP lookup of the client IP.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	for _, h := range countryHeaders {
		if v := strings.TrimSpace(r.Header.Get(h)); len(v) == 2 {
			return strings.ToUpper(v)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		if reg, conf := tags[0].Region(); conf == language.Exact {
			return reg.String()
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}

// ClientIP returns the first forwarded address, or the peer address.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
