package enums

import "fmt"

// GatewayOutcome is the normalized result of a verified gateway event.
type GatewayOutcome string

const (
	GatewayOutcomeSuccess GatewayOutcome = "success"
	GatewayOutcomeFailure GatewayOutcome = "failure"
	// GatewayOutcomePending means the gateway has not settled the charge yet;
	// it never drives a payment transition.
	GatewayOutcomePending GatewayOutcome = "pending"
)

// IsValid reports whether the value is a known GatewayOutcome.
func (g GatewayOutcome) IsValid() bool {
	return g == GatewayOutcomeSuccess || g == GatewayOutcomeFailure || g == GatewayOutcomePending
}

// GatewayProvider identifies which external gateway produced an event.
type GatewayProvider string

const (
	GatewayProviderPaystack GatewayProvider = "paystack"
	GatewayProviderMoMo     GatewayProvider = "momo"
)

var validGatewayProviders = []GatewayProvider{
	GatewayProviderPaystack,
	GatewayProviderMoMo,
}

// String implements fmt.Stringer.
func (g GatewayProvider) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayProvider.
func (g GatewayProvider) IsValid() bool {
	for _, candidate := range validGatewayProviders {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayProvider converts raw input into a GatewayProvider.
func ParseGatewayProvider(value string) (GatewayProvider, error) {
	for _, candidate := range validGatewayProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway provider %q", value)
}
