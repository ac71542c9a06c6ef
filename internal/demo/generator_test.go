package demo

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
	"github.com/invoicetrust/trustdemo/pkg/utils"
)

func assertScoresConsistent(t *testing.T, inv entity.Invoice) {
	t.Helper()
	assert.Equal(t, 100-inv.TrustScore, inv.RiskScore, "invoice %s at %s", inv.ID, inv.PipelineStage)
	assert.Equal(t, entity.StatusForRisk(inv.RiskScore), inv.Status, "invoice %s at %s", inv.ID, inv.PipelineStage)
	assert.Equal(t, inv.Status == entity.StatusFlagged, inv.Flagged, "invoice %s at %s", inv.ID, inv.PipelineStage)
}

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

func TestGenerator_Suppliers(t *testing.T) {
	g := newTestGenerator(1)
	suppliers := g.Suppliers(8)
	require.Len(t, suppliers, 8)

	seen := make(map[string]bool)
	for _, s := range suppliers {
		assert.False(t, seen[s.ID], "duplicate supplier id %s", s.ID)
		seen[s.ID] = true
		assert.NotEmpty(t, s.Name)
		assert.Regexp(t, `^SE\d{12}$`, s.VATNumber)
		assert.GreaterOrEqual(t, s.TrustScore, 0)
		assert.LessOrEqual(t, s.TrustScore, 100)
	}

	assert.Len(t, g.Suppliers(50), len(supplierSeeds))
}

func TestSupplierSeeds_AreWellFormed(t *testing.T) {
	for _, seed := range supplierSeeds {
		assert.NoError(t, utils.ValidateOrgNumber(seed.orgNr), seed.name)
		assert.NoError(t, utils.ValidateIBAN(seed.iban), seed.name)
	}
}

func TestConfig_ValidateRejectsMalformedSeed(t *testing.T) {
	original := supplierSeeds[0]
	t.Cleanup(func() { supplierSeeds[0] = original })

	supplierSeeds[0].iban = "SE12"
	assert.Error(t, DefaultConfig().Validate())

	supplierSeeds[0] = original
	supplierSeeds[0].orgNr = "55667-1234"
	assert.Error(t, DefaultConfig().Validate())

	supplierSeeds[0] = original
	assert.NoError(t, DefaultConfig().Validate())
}

func TestGenerator_TrustFollowsProfile(t *testing.T) {
	g := newTestGenerator(2)
	for i := 0; i < 20; i++ {
		for _, s := range g.Suppliers(8) {
			switch s.RiskProfile {
			case entity.RiskProfileLow:
				assert.GreaterOrEqual(t, s.TrustScore, 80)
			case entity.RiskProfileMedium:
				assert.GreaterOrEqual(t, s.TrustScore, 55)
				assert.Less(t, s.TrustScore, 80)
			case entity.RiskProfileHigh:
				assert.Less(t, s.TrustScore, 55)
			}
		}
	}
}

func TestGenerator_ExistingInvoices(t *testing.T) {
	g := newTestGenerator(3)
	suppliers := g.Suppliers(8)
	invoices := g.ExistingInvoices(suppliers, 24, testEpoch)
	require.Len(t, invoices, 24)

	bySupplier := make(map[string]entity.Supplier)
	for _, s := range suppliers {
		bySupplier[s.ID] = s
	}

	minTotal := decimal.RequireFromString("1500.00")
	maxTotal := decimal.RequireFromString("250000.00")

	for i, inv := range invoices {
		s, ok := bySupplier[inv.SupplierID]
		require.True(t, ok, "invoice %s references unknown supplier", inv.ID)
		assert.Equal(t, s.Name, inv.SupplierName)

		assert.Equal(t, pipeline.StageComplete, inv.PipelineStage)
		assert.True(t, inv.Revealed.Done())
		assert.True(t, inv.DueDate.After(inv.InvoiceDate))
		assert.True(t, inv.InvoiceDate.Before(testEpoch))
		assert.Equal(t, entity.StatusForRisk(inv.RiskScore), inv.Status)
		assert.Equal(t, 100, inv.TrustScore+inv.RiskScore)
		assert.Equal(t, inv.Status == entity.StatusFlagged, inv.Flagged)
		assert.True(t, inv.Total.GreaterThanOrEqual(minTotal))
		assert.True(t, inv.Total.LessThanOrEqual(maxTotal))
		assert.Equal(t, "SEK", inv.Currency)
		assert.NotEmpty(t, inv.AuditTrail)
		require.NotNil(t, inv.CompletedAt)

		if i > 0 {
			assert.False(t, inv.InvoiceDate.After(invoices[i-1].InvoiceDate), "invoices must be sorted newest first")
		}
	}
}

func TestGenerator_ExistingInvoicesWithoutSuppliers(t *testing.T) {
	g := newTestGenerator(4)
	assert.Empty(t, g.ExistingInvoices(nil, 10, testEpoch))
	assert.Nil(t, g.UploadBatch(nil, true, testEpoch))
}

func TestGenerator_UploadBatch(t *testing.T) {
	g := newTestGenerator(5)
	suppliers := g.Suppliers(8)

	batch := g.UploadBatch(suppliers, true, testEpoch)
	require.Len(t, batch, len(exampleBatch))
	for i, inv := range batch {
		assert.Equal(t, exampleBatch[i].fileName, inv.FileName)
		assert.Equal(t, suppliers[exampleBatch[i].supplier].ID, inv.SupplierID)
		assert.Equal(t, pipeline.StageQueued, inv.PipelineStage)
		assert.Equal(t, entity.RevealState{}, inv.Revealed)
		assert.Equal(t, suppliers[exampleBatch[i].supplier].TrustScore, inv.TrustScore)
		assertScoresConsistent(t, inv)
		assert.Nil(t, inv.CompletedAt)
	}

	single := g.UploadBatch(suppliers, false, testEpoch)
	require.Len(t, single, 1)
	assert.Equal(t, singleUploadFileName, single[0].FileName)
}

func TestGenerator_IDsAreUnique(t *testing.T) {
	g := newTestGenerator(6)
	suppliers := g.Suppliers(8)

	seen := make(map[string]bool)
	all := append(g.ExistingInvoices(suppliers, 24, testEpoch), g.UploadBatch(suppliers, true, testEpoch)...)
	for _, inv := range all {
		assert.False(t, seen[inv.ID], "duplicate invoice id %s", inv.ID)
		seen[inv.ID] = true
	}
}

func TestGenerator_OutcomeTrust(t *testing.T) {
	g := newTestGenerator(7)
	cfg := DefaultConfig()

	approved := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		trust := g.OutcomeTrust(cfg)
		require.Contains(t, []int{cfg.ApprovedTrust, cfg.FlaggedTrust}, trust)
		if trust == cfg.ApprovedTrust {
			approved++
		}
	}

	share := float64(approved) / draws
	assert.InDelta(t, 0.8, share, 0.05)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no suppliers", func(c *Config) { c.SupplierCount = 0 }, true},
		{"too many suppliers", func(c *Config) { c.SupplierCount = 99 }, true},
		{"negative invoices", func(c *Config) { c.InvoiceCount = -1 }, true},
		{"zero delay", func(c *Config) { c.RevealInterval = 0 }, true},
		{"approval rate above one", func(c *Config) { c.ApprovalRate = 1.5 }, true},
		{"trust out of range", func(c *Config) { c.FlaggedTrust = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
