package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.Binary == "" {
		return errors.New("conversion.binary must be set")
	}
	if c.Conversion.Quality < 1 || c.Conversion.Quality > 100 {
		return fmt.Errorf("conversion.quality must be between 1 and 100, got %d", c.Conversion.Quality)
	}
	if c.Conversion.HEICCompression < 0 || c.Conversion.HEICCompression > 100 {
		return fmt.Errorf("conversion.heic_compression must be between 0 and 100, got %d", c.Conversion.HEICCompression)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if !c.Metadata.Disabled && c.Metadata.Binary == "" {
		return errors.New("metadata.binary must be set unless metadata.disabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 1 || c.Workflow.Workers > 64 {
		return fmt.Errorf("workflow.workers must be between 1 and 64, got %d", c.Workflow.Workers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
