package validator

import (
	"errors"
	"net/url"
	"strings"
)

// DocumentURL checks that raw is an absolute http(s) URL the resume parser
// can fetch.
func DocumentURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid URL format")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	if u.User != nil {
		return errors.New("must not embed credentials")
	}

	return nil
}
