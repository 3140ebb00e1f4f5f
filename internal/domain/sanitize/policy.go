package sanitize

import "sort"

// Pattern classes a policy may blur.
const (
	PatternEmailAddresses    = "email_addresses"
	PatternCreditCardNumbers = "credit_card_numbers"
	PatternPhoneNumbers      = "phone_numbers"
)

// Policy describes what to redact for one page type. Loaded from external
// configuration; this package only consumes the resolved mapping.
type Policy struct {
	BlurPatterns  map[string]bool `toml:"blur_patterns"`
	BlurSelectors []string        `toml:"blur_selectors"`
}

// Config maps page types to their redaction policy.
type Config map[PageType]Policy

// Resolve returns the policy for a page type, falling back to the default
// bucket when the type has no entry.
func (c Config) Resolve(pageType PageType) Policy {
	if policy, ok := c[pageType]; ok {
		return policy
	}
	return c[PageDefault]
}

// RequestsRedaction reports whether the policy asks for any blurring.
func (p Policy) RequestsRedaction() bool {
	if len(p.BlurSelectors) > 0 {
		return true
	}
	for _, enabled := range p.BlurPatterns {
		if enabled {
			return true
		}
	}
	return false
}

// EnabledPatterns returns the blurred pattern classes in stable order for
// audit metadata.
func (p Policy) EnabledPatterns() []string {
	out := make([]string, 0, len(p.BlurPatterns))
	for name, enabled := range p.BlurPatterns {
		if enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
