package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/metrics"
)

const (
	EnvAuditCuts               = "PARITY_AUDIT_CUTS"
	EnvAuditShuffle            = "PARITY_AUDIT_SHUFFLE"
	EnvAuditSeed               = "PARITY_AUDIT_SEED"
	EnvAuditPartition          = "PARITY_AUDIT_PARTITION"
	EnvAuditLabel              = "PARITY_AUDIT_LABEL"
	EnvAuditProtectedAttribute = "PARITY_AUDIT_PROTECTED_ATTRIBUTE"
	EnvAuditPrivilegedValue    = "PARITY_AUDIT_PRIVILEGED_VALUE"
	EnvAuditUnprivilegedValue  = "PARITY_AUDIT_UNPRIVILEGED_VALUE"
)

// AuditConfig holds the defaults applied to audit requests that do not set
// their own split or group definitions. Pointer fields distinguish "not set"
// from an explicit false or zero.
type AuditConfig struct {
	Cuts               []float64 `toml:"cuts"`
	Shuffle            *bool     `toml:"shuffle"`
	Seed               int64     `toml:"seed"`
	Partition          int       `toml:"partition"`
	Label              string    `toml:"label"`
	ProtectedAttribute string    `toml:"protected_attribute"`
	PrivilegedValue    *float64  `toml:"privileged_value"`
	UnprivilegedValue  *float64  `toml:"unprivileged_value"`
}

// SplitOptions returns the configured shuffle settings.
func (c *AuditConfig) SplitOptions() dataset.SplitOptions {
	return dataset.SplitOptions{
		Shuffle: c.Shuffle != nil && *c.Shuffle,
		Seed:    c.Seed,
	}
}

// Groups returns the single-attribute privileged and unprivileged groups.
func (c *AuditConfig) Groups() (privileged, unprivileged metrics.Group) {
	return metrics.Attribute(c.ProtectedAttribute, *c.PrivilegedValue),
		metrics.Attribute(c.ProtectedAttribute, *c.UnprivilegedValue)
}

// LoadOptions returns the CSV column mapping implied by the config.
func (c *AuditConfig) LoadOptions() []dataset.Option {
	return []dataset.Option{
		dataset.WithLabel(c.Label),
		dataset.WithProtected(c.ProtectedAttribute),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuditConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.Validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuditConfig) Merge(overlay *AuditConfig) {
	if len(overlay.Cuts) > 0 {
		c.Cuts = append([]float64(nil), overlay.Cuts...)
	}
	if overlay.Shuffle != nil {
		shuffle := *overlay.Shuffle
		c.Shuffle = &shuffle
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.Partition != 0 {
		c.Partition = overlay.Partition
	}
	if overlay.Label != "" {
		c.Label = overlay.Label
	}
	if overlay.ProtectedAttribute != "" {
		c.ProtectedAttribute = overlay.ProtectedAttribute
	}
	if overlay.PrivilegedValue != nil {
		v := *overlay.PrivilegedValue
		c.PrivilegedValue = &v
	}
	if overlay.UnprivilegedValue != nil {
		v := *overlay.UnprivilegedValue
		c.UnprivilegedValue = &v
	}
}

func (c *AuditConfig) loadDefaults() {
	if len(c.Cuts) == 0 {
		c.Cuts = []float64{0.7}
	}
	if c.Shuffle == nil {
		shuffle := true
		c.Shuffle = &shuffle
	}
	if c.Label == "" {
		c.Label = "credit"
	}
	if c.ProtectedAttribute == "" {
		c.ProtectedAttribute = "age"
	}
	if c.PrivilegedValue == nil {
		v := 1.0
		c.PrivilegedValue = &v
	}
	if c.UnprivilegedValue == nil {
		v := 0.0
		c.UnprivilegedValue = &v
	}
}

func (c *AuditConfig) loadEnv() error {
	if v := os.Getenv(EnvAuditCuts); v != "" {
		cuts, err := ParseCuts(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAuditCuts, err)
		}
		c.Cuts = cuts
	}
	if v := os.Getenv(EnvAuditShuffle); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Shuffle = &b
		}
	}
	if v := os.Getenv(EnvAuditSeed); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv(EnvAuditPartition); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Partition = n
		}
	}
	if v := os.Getenv(EnvAuditLabel); v != "" {
		c.Label = v
	}
	if v := os.Getenv(EnvAuditProtectedAttribute); v != "" {
		c.ProtectedAttribute = v
	}
	if v := os.Getenv(EnvAuditPrivilegedValue); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PrivilegedValue = &f
		}
	}
	if v := os.Getenv(EnvAuditUnprivilegedValue); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.UnprivilegedValue = &f
		}
	}
	return nil
}

// Validate checks the cut points, the fitted partition and that the two
// groups are distinct.
func (c *AuditConfig) Validate() error {
	if err := dataset.ValidateCuts(c.Cuts); err != nil {
		return err
	}
	if c.Partition < 0 || c.Partition > len(c.Cuts) {
		return fmt.Errorf("invalid partition %d for %d cuts", c.Partition, len(c.Cuts))
	}
	if *c.PrivilegedValue == *c.UnprivilegedValue {
		return fmt.Errorf("privileged_value and unprivileged_value must differ")
	}
	return nil
}

// ParseCuts parses a comma-separated list of cut points such as "0.7,0.9".
func ParseCuts(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	cuts := make([]float64, 0, len(parts))

	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cut %q: %w", p, err)
		}
		cuts = append(cuts, f)
	}

	return cuts, nil
}
