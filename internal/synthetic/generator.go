// Package synthetic produces a deterministic demo dataset with planted
// structural anomalies: missing and mis-sized invoices, fuzzy and
// orphaned identities, usage and ramp pricing, an annual invoice, unpaid
// receivables and credit notes. The same seed always yields the same
// dataset, so analysis results over it are reproducible.
package synthetic

import (
	"encoding/json"
	"fmt"
	"math/rand"

	billing "revstrux/internal/billing/domain"
	identity "revstrux/internal/identity/domain"
	revenue "revstrux/internal/revenue/domain"
)

// DefaultSeed keeps demo sessions reproducible across restarts.
const DefaultSeed = 42

// PeriodStart and PeriodEnd bound the generated analysis window.
const (
	PeriodStart = "2024-01"
	PeriodEnd   = "2024-12"
)

var companies = []string{
	"NovaTech Solutions", "Meridian Digital", "Apex Global Partners", "CloudBridge Systems",
	"DataVault Analytics", "Zenith Platforms", "Summit Software", "Pinnacle AI Labs",
	"Horizon Networks", "Quantum Logic", "Atlas Dynamics", "Velocity SaaS",
	"Fusion Collaborative", "Nexus Intelligence", "Prism Analytics",
	"ClearPath Software", "Matrix Operations", "Forge Automation", "Signal Processing Co",
	"Blueprint Tech", "Cascade Data", "Ironclad Security", "Lighthouse Labs",
	"Pioneer Digital", "Sterling Analytics", "TrueNorth Consulting", "Vanguard Systems",
	"WavePoint Tech", "Axiom Software", "BrightEdge Solutions", "Cobalt Platforms",
	"Dreamscape AI", "EchoBase Systems", "Frontier Logic", "GreenField SaaS",
	"HexaCore Computing", "InfiniteLoop Tech", "JadeStone Analytics", "Keystone Digital",
	"LaunchPad Ventures", "MoonRise Software", "NorthStar Data", "OmniStack Solutions",
	"Polaris Systems", "QuickSilver Tech", "RedShift Analytics", "SkyVault Cloud",
	"TerraFlow Data", "UltraViolet Labs", "VectorSpace AI", "Windmill Software",
	"XenonByte Systems", "YieldMax Analytics", "ZeroGravity Tech", "AlphaWave Digital",
	"BetaForge Solutions", "TechFlow Inc", "Apex Systems", "CoreSync Ltd", "DataPrime Corp",
}

var mrrChoices = []float64{5000, 8000, 10000, 12000, 15000, 20000}

var daysInMonth2024 = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Metadata summarizes a generated dataset.
type Metadata struct {
	TotalAccounts      int `json:"total_accounts"`
	TotalCustomers     int `json:"total_customers"`
	TotalSubscriptions int `json:"total_subscriptions"`
	TotalInvoices      int `json:"total_invoices"`
	TotalPayments      int `json:"total_payments"`
	TotalCreditNotes   int `json:"total_credit_notes"`
}

// Dataset is one complete generated input set.
type Dataset struct {
	Accounts      []identity.Account     `json:"accounts"`
	Customers     []identity.Customer    `json:"customers"`
	Subscriptions []revenue.Subscription `json:"subscriptions"`
	Invoices      []billing.Invoice      `json:"invoices"`
	Payments      []billing.Payment      `json:"payments"`
	CreditNotes   []billing.CreditNote   `json:"credit_notes"`
	PeriodStart   string                 `json:"period_start"`
	PeriodEnd     string                 `json:"period_end"`
	Metadata      Metadata               `json:"metadata"`
}

func synthID(n int) string   { return fmt.Sprintf("SYNTH-%03d", n) }
func isoDate(y, m, d int) string { return fmt.Sprintf("%04d-%02d-%02d", y, m, d) }

// Generate builds the dataset for a seed.
func Generate(seed int64) Dataset {
	rng := rand.New(rand.NewSource(seed))

	var ds Dataset
	ds.PeriodStart, ds.PeriodEnd = PeriodStart, PeriodEnd

	// 60 CRM accounts: two prospects, one churned, two fuzzy-named, two
	// with no billing counterpart at all.
	for i := 0; i < 60; i++ {
		status := identity.AccountStatusActive
		if i == 58 || i == 59 {
			status = identity.AccountStatusProspect
		}
		if i == 25 {
			status = identity.AccountStatusChurned
		}
		ds.Accounts = append(ds.Accounts, identity.Account{
			AccountID:     synthID(i + 1),
			AccountName:   companies[i],
			AccountStatus: status,
			SourceSystem:  "salesforce",
		})
	}
	ds.Accounts[32].AccountName = "TechFlow Inc"
	ds.Accounts[40].AccountName = "Apex Systems"
	ds.Accounts[18].AccountName = "Pioneer Digital"
	ds.Accounts[51].AccountName = "XenonByte Systems"

	// Billing customers mirror the accounts except: prospects and the two
	// orphaned accounts get none, two carry fuzzy name variants, and three
	// orphan billing customers have no CRM account.
	accountToCustomer := make(map[string]string)
	for _, acc := range ds.Accounts {
		if acc.AccountStatus == identity.AccountStatusProspect {
			continue
		}
		if acc.AccountID == "SYNTH-019" || acc.AccountID == "SYNTH-052" {
			continue
		}
		if len(ds.Customers) >= 55 {
			break
		}
		name := acc.AccountName
		switch acc.AccountID {
		case "SYNTH-033":
			name = "Techflow Incorporated"
		case "SYNTH-041":
			name = "Apex System Solutions"
		}
		status := "active"
		if acc.AccountStatus == identity.AccountStatusChurned {
			status = "cancelled"
		}
		cid := fmt.Sprintf("CUST-%03d", len(ds.Customers)+1)
		ds.Customers = append(ds.Customers, identity.Customer{
			CustomerID:     cid,
			CustomerName:   name,
			CustomerStatus: status,
			SourceSystem:   "stripe",
		})
		accountToCustomer[acc.AccountID] = cid
	}
	for j := 1; j <= 3; j++ {
		ds.Customers = append(ds.Customers, identity.Customer{
			CustomerID:     fmt.Sprintf("CUST-%03d", 55+j),
			CustomerName:   fmt.Sprintf("Orphan Billing Co %d", j),
			CustomerStatus: "active",
			SourceSystem:   "stripe",
		})
	}

	customerToAccount := make(map[string]string, len(accountToCustomer))
	for aid, cid := range accountToCustomer {
		customerToAccount[cid] = aid
	}

	// 70 subscriptions over the first 55 customers: a block of usage
	// subscriptions for exclusion coverage, a block of ramps, and one
	// mid-month start.
	subIdx := 0
	for subIdx < 70 {
		for _, cust := range ds.Customers[:55] {
			if subIdx >= 70 {
				break
			}
			count := 1
			if subIdx%8 == 0 && subIdx < 60 {
				count = 2
			}
			for n := 0; n < count && subIdx < 70; n++ {
				mrr := mrrChoices[rng.Intn(len(mrrChoices))]
				startMonth := rng.Intn(6) + 1
				startDay := 1

				pricing := revenue.PricingFlat
				ramp := ""
				if subIdx >= 27 && subIdx <= 31 {
					pricing = revenue.PricingUsage
				}
				if subIdx >= 60 && subIdx <= 64 {
					pricing = revenue.PricingRamp
					stages := []revenue.RampStage{
						{StageStart: isoDate(2024, startMonth, 1), StageEnd: "2024-06-30", MRR: mrr},
						{StageStart: "2024-07-01", StageEnd: "2024-12-31", MRR: mrr * 1.5},
					}
					encoded, _ := json.Marshal(stages)
					ramp = string(encoded)
				}
				if customerToAccount[cust.CustomerID] == "SYNTH-058" || subIdx == 57 {
					startMonth, startDay, mrr = 3, 15, 10000
				}

				ds.Subscriptions = append(ds.Subscriptions, revenue.Subscription{
					SubID:            fmt.Sprintf("SUB-%03d", subIdx+1),
					CustomerID:       cust.CustomerID,
					StartDate:        isoDate(2024, startMonth, startDay),
					EndDate:          "2024-12-31",
					MRR:              mrr,
					Currency:         "USD",
					BillingFrequency: "monthly",
					PricingModel:     pricing,
					RampSchedule:     ramp,
					SubStatus:        revenue.SubStatusActive,
				})
				subIdx++
			}
		}
	}

	ds.Invoices, ds.Payments = generateBilling(ds.Subscriptions, customerToAccount)
	ds.CreditNotes = generateCreditNotes(ds.Customers, ds.Invoices, accountToCustomer, rng)

	ds.Metadata = Metadata{
		TotalAccounts:      len(ds.Accounts),
		TotalCustomers:     len(ds.Customers),
		TotalSubscriptions: len(ds.Subscriptions),
		TotalInvoices:      len(ds.Invoices),
		TotalPayments:      len(ds.Payments),
		TotalCreditNotes:   len(ds.CreditNotes),
	}
	return ds
}

func generateBilling(subs []revenue.Subscription, customerToAccount map[string]string) ([]billing.Invoice, []billing.Payment) {
	var invoices []billing.Invoice
	var payments []billing.Payment
	invIdx, payIdx := 0, 0

	addPayment := func(invoiceID string, month int, amount float64) {
		payIdx++
		payments = append(payments, billing.Payment{
			PaymentID:   fmt.Sprintf("PAY-%04d", payIdx),
			InvoiceID:   invoiceID,
			PaymentDate: isoDate(2024, month, 15),
			Amount:      amount,
			Currency:    "USD",
		})
	}

	for _, sub := range subs {
		if sub.PricingModel == revenue.PricingUsage {
			continue
		}
		accountID := customerToAccount[sub.CustomerID]
		startMonth := int(sub.StartDate[5]-'0')*10 + int(sub.StartDate[6]-'0')

		// One account is billed annually up front.
		if accountID == "SYNTH-062" {
			invIdx++
			id := fmt.Sprintf("INV-%04d", invIdx)
			invoices = append(invoices, billing.Invoice{
				InvoiceID: id, CustomerID: sub.CustomerID, SubID: sub.SubID,
				InvoiceDate: "2024-01-01", PeriodStart: "2024-01-01", PeriodEnd: "2024-12-31",
				Amount: sub.MRR * 12, Currency: "USD", Status: billing.InvoiceStatusPaid,
			})
			addPayment(id, 1, sub.MRR*12)
			continue
		}

		for m := startMonth; m <= 12; m++ {
			if accountID == "SYNTH-012" && (m == 8 || m == 9) {
				continue
			}
			amount := sub.MRR
			switch {
			case accountID == "SYNTH-031" && m == 7:
				amount = 7500
			case accountID == "SYNTH-044" && m >= 5 && m <= 7:
				amount = sub.MRR - 7333.33
			case accountID == "SYNTH-007" && m == 6:
				amount = 15000
			case accountID == "SYNTH-039" && m == 4:
				amount = sub.MRR - 0.87
			}

			status := billing.InvoiceStatusPaid
			if accountID == "SYNTH-015" && m >= 10 {
				status = billing.InvoiceStatusUnpaid
			}

			invIdx++
			id := fmt.Sprintf("INV-%04d", invIdx)
			invoices = append(invoices, billing.Invoice{
				InvoiceID: id, CustomerID: sub.CustomerID, SubID: sub.SubID,
				InvoiceDate: isoDate(2024, m, 1),
				PeriodStart: isoDate(2024, m, 1),
				PeriodEnd:   isoDate(2024, m, daysInMonth2024[m]),
				Amount:      amount, Currency: "USD", Status: status,
			})
			if status == billing.InvoiceStatusPaid {
				addPayment(id, m, amount)
			}
		}
	}
	return invoices, payments
}

func generateCreditNotes(customers []identity.Customer, invoices []billing.Invoice, accountToCustomer map[string]string, rng *rand.Rand) []billing.CreditNote {
	var notes []billing.CreditNote

	firstInvoiceFor := func(customerID string) string {
		for _, inv := range invoices {
			if inv.CustomerID == customerID {
				return inv.InvoiceID
			}
		}
		return ""
	}

	// A correction linked to a specific invoice.
	if cid := accountToCustomer["SYNTH-034"]; cid != "" {
		if invoiceID := firstInvoiceFor(cid); invoiceID != "" {
			notes = append(notes, billing.CreditNote{
				CreditNoteID: "CN-001", InvoiceID: invoiceID, CustomerID: cid,
				IssueDate: "2024-03-15", Amount: 2000, Currency: "USD",
				Reason: "billing error correction",
			})
		}
	}

	// A standalone note issued outside the analysis window.
	if cid := accountToCustomer["SYNTH-047"]; cid != "" {
		notes = append(notes, billing.CreditNote{
			CreditNoteID: "CN-002", CustomerID: cid,
			IssueDate: "2025-06-15", Amount: 1500, Currency: "USD",
			Reason: "goodwill credit",
		})
	}

	amounts := []float64{500, 1000, 1500, 2000}
	reasons := []string{"billing error", "goodwill", "dispute resolution"}
	for j := 0; j < 6; j++ {
		idx := j*5 + 3
		if idx >= len(customers) {
			idx = 0
		}
		cid := customers[idx].CustomerID
		invoiceID := ""
		if j < 3 {
			invoiceID = firstInvoiceFor(cid)
		}
		notes = append(notes, billing.CreditNote{
			CreditNoteID: fmt.Sprintf("CN-%03d", j+3),
			InvoiceID:    invoiceID,
			CustomerID:   cid,
			IssueDate:    fmt.Sprintf("2024-%02d-10", (j+1)*2),
			Amount:       amounts[rng.Intn(len(amounts))],
			Currency:     "USD",
			Reason:       reasons[rng.Intn(len(reasons))],
		})
	}
	return notes
}
