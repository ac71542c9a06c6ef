package demo

import (
	"fmt"
	"time"

	"github.com/invoicetrust/trustdemo/pkg/utils"
)

// Config holds the demo data set sizes, timings and outcome rule
type Config struct {
	SupplierCount  int
	InvoiceCount   int
	RiskEventLimit int

	UploadDelay    time.Duration // upload start -> batch visible as parsing
	StaggerDelay   time.Duration // per-index offset between lifecycle starts
	RevealInterval time.Duration // tick between reveal sub-steps
	AnalysisDelay  time.Duration // analyzing -> complete

	ApprovalRate  float64 // share of simulated invoices that end approved
	ApprovedTrust int
	FlaggedTrust  int
}

// DefaultConfig returns the timings used by the sales demo
func DefaultConfig() Config {
	return Config{
		SupplierCount:  8,
		InvoiceCount:   24,
		RiskEventLimit: 5,
		UploadDelay:    800 * time.Millisecond,
		StaggerDelay:   1500 * time.Millisecond,
		RevealInterval: 400 * time.Millisecond,
		AnalysisDelay:  2 * time.Second,
		ApprovalRate:   0.8,
		ApprovedTrust:  95,
		FlaggedTrust:   45,
	}
}

// Validate checks that sizes and timings are usable
func (c Config) Validate() error {
	if c.SupplierCount <= 0 || c.SupplierCount > len(supplierSeeds) {
		return fmt.Errorf("supplier count must be between 1 and %d, got %d", len(supplierSeeds), c.SupplierCount)
	}
	for _, seed := range supplierSeeds[:c.SupplierCount] {
		if err := utils.ValidateOrgNumber(seed.orgNr); err != nil {
			return fmt.Errorf("supplier %s: %w", seed.name, err)
		}
		if err := utils.ValidateIBAN(seed.iban); err != nil {
			return fmt.Errorf("supplier %s: %w", seed.name, err)
		}
	}
	if c.InvoiceCount < 0 {
		return fmt.Errorf("invoice count must not be negative, got %d", c.InvoiceCount)
	}
	if c.RiskEventLimit < 0 {
		return fmt.Errorf("risk event limit must not be negative, got %d", c.RiskEventLimit)
	}
	if c.UploadDelay <= 0 || c.StaggerDelay <= 0 || c.RevealInterval <= 0 || c.AnalysisDelay <= 0 {
		return fmt.Errorf("demo delays must be positive")
	}
	if c.ApprovalRate < 0 || c.ApprovalRate > 1 {
		return fmt.Errorf("approval rate must be between 0 and 1, got %.2f", c.ApprovalRate)
	}
	if c.ApprovedTrust < 0 || c.ApprovedTrust > 100 || c.FlaggedTrust < 0 || c.FlaggedTrust > 100 {
		return fmt.Errorf("outcome trust scores must be between 0 and 100")
	}
	return nil
}
