package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateRecognizer(); err != nil {
		return err
	}
	if err := c.validateEntities(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.BaseURL == "" {
		return errors.New("vision.base_url must be set")
	}
	if c.Vision.Model == "" {
		return errors.New("vision.model must be set")
	}
	if c.Vision.TimeoutSeconds <= 0 {
		return errors.New("vision.timeout_seconds must be positive")
	}
	if c.Vision.RetryAttempts < 1 {
		return errors.New("vision.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateRecognizer() error {
	if c.Recognizer.BaseURL == "" {
		return errors.New("recognizer.base_url must be set")
	}
	if c.Recognizer.TimeoutSeconds <= 0 {
		return errors.New("recognizer.timeout_seconds must be positive")
	}
	if c.Recognizer.MinConfidence < 0 || c.Recognizer.MinConfidence > 1 {
		return errors.New("recognizer.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateEntities() error {
	if c.Entities.MatchThreshold <= 0 || c.Entities.MatchThreshold >= 1 {
		return errors.New("entities.match_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if len(c.Scanner.Extensions) == 0 {
		return errors.New("scanner.extensions must not be empty")
	}
	for _, ext := range c.Scanner.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("scanner extension %q must start with a dot", ext)
		}
	}
	if c.Scanner.LogBufferLines <= 0 {
		return errors.New("scanner.log_buffer_lines must be positive")
	}
	if c.Scanner.EnrichTimeoutSeconds <= 0 {
		return errors.New("scanner.enrich_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console or json)", c.Logging.Format)
	}
	return nil
}
