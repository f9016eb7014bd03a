package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator provides validation for topic declarations
type Validator struct {
	// namePattern defines valid topic name patterns
	namePattern *regexp.Regexp
	// ownerPattern defines valid owner identifiers
	ownerPattern *regexp.Regexp
}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	// Declared topic names are absolute slash-separated paths:
	// /chatter, /diagnostics/stats, /sensors/imu_raw
	namePattern := regexp.MustCompile(`^(/[a-z_][a-z0-9_]*)+$`)
	ownerPattern := regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	return &Validator{
		namePattern:  namePattern,
		ownerPattern: ownerPattern,
	}
}

// ValidateDefinition validates a topic declaration
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.validateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	if owner := topic.Owner(); owner != "" {
		if err := v.validateOwner(owner); err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention (public method)
func (v *Validator) ValidateName(name string) error {
	return v.validateName(name)
}

// validateName checks if a topic name follows the naming convention
func (v *Validator) validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if !strings.HasPrefix(name, "/") {
		return fmt.Errorf("name must be absolute (start with '/')")
	}

	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}

	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be slash-separated lowercase segments (e.g., /diagnostics/stats)")
	}

	return nil
}

// validateOwner validates an owner identifier
func (v *Validator) validateOwner(owner string) error {
	if len(owner) > 50 {
		return fmt.Errorf("owner too long (max 50 characters)")
	}

	if !v.ownerPattern.MatchString(owner) {
		return fmt.Errorf("owner must be lowercase alphanumeric with underscores")
	}

	return nil
}
