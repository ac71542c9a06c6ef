package demo

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
	"github.com/invoicetrust/trustdemo/internal/domain/pipeline"
)

const (
	demoCurrency     = "SEK"
	paymentTermsDays = 30
	maxBackdateDays  = 60
	trustJitter      = 10
)

type supplierSeed struct {
	name    string
	orgNr   string
	iban    string
	profile entity.RiskProfile
}

var supplierSeeds = []supplierSeed{
	{"Nordvik Logistik AB", "556234-8891", "SE45 5000 0000 0583 9825 7466", entity.RiskProfileLow},
	{"Fjällström Bygg AB", "556781-2204", "SE35 5000 0000 0549 1000 0003", entity.RiskProfileLow},
	{"Kustlinjen Energi AB", "556903-1177", "SE72 8000 0810 3400 0978 3242", entity.RiskProfileMedium},
	{"Solberg IT-Konsult AB", "559012-4410", "SE21 9000 0123 9876 5432 1012", entity.RiskProfileLow},
	{"Brandt & Co Handel AB", "556455-9032", "SE86 6000 0000 0004 1234 5678", entity.RiskProfileMedium},
	{"Östgöta Transport AB", "556118-6653", "SE12 3000 0000 0123 4567 8901", entity.RiskProfileHigh},
	{"Vintergatan Media AB", "559204-7781", "SE64 1200 0000 0121 7000 3321", entity.RiskProfileMedium},
	{"Lindqvist Fastighetsservice AB", "556672-3309", "SE93 9500 0099 6034 1122 3344", entity.RiskProfileHigh},
}

// exampleBatch is the fixed example data set offered by the upload modal.
// Each file is tied to a supplier seed index.
var exampleBatch = []struct {
	fileName string
	supplier int
}{
	{"nordvik-faktura-2291.pdf", 0},
	{"kustlinjen-energi-oktober.pdf", 2},
	{"ostgota-transport-1187.pdf", 5},
	{"solberg-it-konsult-q3.pdf", 3},
}

const singleUploadFileName = "faktura.pdf"

// Generator fabricates suppliers and invoices from a random source.
// It is not safe for concurrent use; the engine calls it under its lock.
type Generator struct {
	rng *rand.Rand
	seq int
}

// NewGenerator creates a generator drawing from rng
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Suppliers builds the fixed supplier pool
func (g *Generator) Suppliers(n int) []entity.Supplier {
	if n > len(supplierSeeds) {
		n = len(supplierSeeds)
	}

	suppliers := make([]entity.Supplier, 0, n)
	for i := 0; i < n; i++ {
		seed := supplierSeeds[i]
		suppliers = append(suppliers, entity.Supplier{
			ID:          fmt.Sprintf("sup-%02d", i+1),
			Name:        seed.name,
			OrgNr:       seed.orgNr,
			VATNumber:   vatNumber(seed.orgNr),
			TrustScore:  g.trustForProfile(seed.profile),
			RiskProfile: seed.profile,
			IBAN:        seed.iban,
		})
	}
	return suppliers
}

// ExistingInvoices builds n already analyzed invoices backdated from now,
// sorted newest first
func (g *Generator) ExistingInvoices(suppliers []entity.Supplier, n int, now time.Time) []entity.Invoice {
	invoices := make([]entity.Invoice, 0, n)
	if len(suppliers) == 0 {
		return invoices
	}

	for i := 0; i < n; i++ {
		s := suppliers[g.rng.Intn(len(suppliers))]
		daysAgo := 1 + g.rng.Intn(maxBackdateDays)
		invoiceDate := startOfDay(now).AddDate(0, 0, -daysAgo)

		inv := g.baseInvoice(s, invoiceDate)
		inv.ApplyTrustScore(s.TrustScore + g.rng.Intn(2*trustJitter+1) - trustJitter)
		inv.PipelineStage = pipeline.StageComplete
		inv.Revealed = entity.FullyRevealed()
		inv.CreatedAt = invoiceDate.Add(time.Duration(8+g.rng.Intn(9)) * time.Hour)
		inv.AuditTrail = analyzedTrail(inv, inv.CreatedAt)
		completed := inv.CreatedAt.Add(10 * time.Minute)
		inv.CompletedAt = &completed

		invoices = append(invoices, inv)
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].InvoiceDate.After(invoices[j].InvoiceDate)
	})
	return invoices
}

// UploadBatch builds the queued invoices of one upload simulation:
// the four example files, or a single file
func (g *Generator) UploadBatch(suppliers []entity.Supplier, useExampleData bool, now time.Time) []entity.Invoice {
	if len(suppliers) == 0 {
		return nil
	}

	if !useExampleData {
		s := suppliers[g.rng.Intn(len(suppliers))]
		return []entity.Invoice{g.uploadedInvoice(s, singleUploadFileName, now)}
	}

	batch := make([]entity.Invoice, 0, len(exampleBatch))
	for _, ex := range exampleBatch {
		s := suppliers[ex.supplier%len(suppliers)]
		batch = append(batch, g.uploadedInvoice(s, ex.fileName, now))
	}
	return batch
}

// OutcomeTrust draws the final trust score of a simulated invoice
func (g *Generator) OutcomeTrust(cfg Config) int {
	if g.rng.Float64() < cfg.ApprovalRate {
		return cfg.ApprovedTrust
	}
	return cfg.FlaggedTrust
}

func (g *Generator) uploadedInvoice(s entity.Supplier, fileName string, now time.Time) entity.Invoice {
	inv := g.baseInvoice(s, startOfDay(now))
	inv.PipelineStage = pipeline.StageQueued
	inv.FileName = fileName
	// provisional until analysis completes
	inv.ApplyTrustScore(s.TrustScore)
	inv.CreatedAt = now
	inv.AuditTrail = []entity.AuditEntry{
		{Timestamp: now, Event: "Uploaded " + fileName, User: "demo-user"},
		{Timestamp: now, Event: "Queued for Trust Engine analysis", User: "system"},
	}
	return inv
}

func (g *Generator) baseInvoice(s entity.Supplier, invoiceDate time.Time) entity.Invoice {
	g.seq++
	return entity.Invoice{
		ID:           fmt.Sprintf("inv-%05d", g.seq),
		InvoiceID:    fmt.Sprintf("F%d-%04d", invoiceDate.Year(), 1000+g.rng.Intn(9000)),
		SupplierID:   s.ID,
		SupplierName: s.Name,
		VATNumber:    s.VATNumber,
		OrgNumber:    s.OrgNr,
		IBAN:         s.IBAN,
		Total:        g.amount(),
		Currency:     demoCurrency,
		InvoiceDate:  invoiceDate,
		DueDate:      invoiceDate.AddDate(0, 0, paymentTermsDays),
	}
}

// amount returns a total between 1 500.00 and 250 000.00
func (g *Generator) amount() decimal.Decimal {
	cents := int64(150000 + g.rng.Intn(24850001))
	return decimal.New(cents, -2)
}

func (g *Generator) trustForProfile(p entity.RiskProfile) int {
	switch p {
	case entity.RiskProfileLow:
		return 80 + g.rng.Intn(19)
	case entity.RiskProfileMedium:
		return 55 + g.rng.Intn(25)
	default:
		return 25 + g.rng.Intn(30)
	}
}

func analyzedTrail(inv entity.Invoice, received time.Time) []entity.AuditEntry {
	trail := []entity.AuditEntry{
		{Timestamp: received, Event: "Invoice received via e-invoice gateway", User: "system"},
		{Timestamp: received.Add(5 * time.Minute), Event: "Parsed by Trust Engine", User: "trust-engine"},
		{Timestamp: received.Add(10 * time.Minute), Event: fmt.Sprintf("Risk analysis completed (trust score %d)", inv.TrustScore), User: "trust-engine"},
	}

	switch inv.Status {
	case entity.StatusFlagged:
		trail = append(trail, entity.AuditEntry{Timestamp: received.Add(70 * time.Minute), Event: "Flagged for manual review", User: "trust-engine"})
	case entity.StatusNeedsReview:
		trail = append(trail, entity.AuditEntry{Timestamp: received.Add(70 * time.Minute), Event: "Sent to approver", User: "system"})
	}
	return trail
}

func vatNumber(orgNr string) string {
	return "SE" + strings.ReplaceAll(orgNr, "-", "") + "01"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
