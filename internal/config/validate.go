package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAcquisition(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateAcquisition() error {
	if c.Acquisition.MinMatchScore < 0 || c.Acquisition.MinMatchScore > 100 {
		return errors.New("acquisition.min_match_score must be between 0 and 100")
	}
	switch c.Acquisition.DefaultContentType {
	case "ebook", "audiobook":
	default:
		return fmt.Errorf("acquisition.default_content_type must be ebook or audiobook, got %q", c.Acquisition.DefaultContentType)
	}
	return nil
}
