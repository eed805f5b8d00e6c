// Package validate implements the per-column validation hooks that run
// at add-row time: a column-indexed list of simple predicates that can
// reject a row before it ever reaches the sort buffer.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Rule names recognized in a validation schema.
type Rule string

const (
	None     Rule = "none"
	URL      Rule = "url"
	Protocol Rule = "protocol"
)

var protocolPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Check applies rule to value. columnIdentifier names the column in
// the returned error, per §6's wording, so the message can be written
// verbatim to the error log. An empty value always passes.
func (r Rule) Check(columnIdentifier, value string) error {
	if value == "" {
		return nil
	}
	switch r {
	case "", None:
		return nil
	case URL:
		u, err := url.Parse(value)
		if err != nil || !u.IsAbs() || !strings.Contains(u.Host, ".") {
			return fmt.Errorf("%s does not include a valid domain", columnIdentifier)
		}
		return nil
	case Protocol:
		if !protocolPattern.MatchString(value) {
			return fmt.Errorf("%s does not include a valid link protocol", columnIdentifier)
		}
		return nil
	default:
		return fmt.Errorf("validate: unknown rule %q", r)
	}
}

// Kind classifies a failed Check, so a caller can bump the right
// counter without restringifying the message.
type Kind int

const (
	KindNone Kind = iota
	KindURL
	KindProtocol
)

// Kind reports which counter a failure of this rule belongs to.
func (r Rule) Kind() Kind {
	switch r {
	case URL:
		return KindURL
	case Protocol:
		return KindProtocol
	default:
		return KindNone
	}
}
