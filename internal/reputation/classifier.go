// Package reputation classifies client IP addresses using an external
// proxy/VPN intelligence service. The classifier is treated as an untrusted,
// possibly-unavailable oracle: it never returns an error, it degrades to a
// neutral classification instead, so a classifier outage can never block a
// legitimate login on its own.
package reputation

import "context"

// Classification is the reputation verdict for a single IP address.
type Classification struct {
	IsVPN       bool
	CountryCode string
	Proxy       bool
	Threat      bool
}

// Neutral is the degraded classification substituted when the upstream
// service is unreachable, misconfigured, or returns garbage.
func Neutral() Classification {
	return Classification{IsVPN: false, CountryCode: "UNKNOWN", Proxy: false, Threat: false}
}

// Classifier resolves the reputation of an IP address.
type Classifier interface {
	Classify(ctx context.Context, ip string) Classification
}
