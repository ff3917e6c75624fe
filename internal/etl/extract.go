package etl

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CMS column names in the source file. Columns beyond these are ignored.
const (
	colProviderID    = "Rndrng_Prvdr_CCN"
	colProviderName  = "Rndrng_Prvdr_Org_Name"
	colProviderCity  = "Rndrng_Prvdr_City"
	colProviderState = "Rndrng_Prvdr_State_Abrvtn"
	colProviderZip   = "Rndrng_Prvdr_Zip5"
	colDrgCode       = "DRG_Cd"
	colDrgDesc       = "DRG_Desc"
	colDischarges    = "Tot_Dschrgs"
	colCoveredCharge = "Avg_Submtd_Cvrd_Chrg"
	colTotalPayment  = "Avg_Tot_Pymt_Amt"
	colMedicarePay   = "Avg_Mdcr_Pymt_Amt"
)

// Length caps applied during extraction.
const (
	maxNameLen = 255
	maxCityLen = 100
	maxDescLen = 500
)

// Row is one raw CSV record keyed by header name.
type Row map[string]string

type ProviderRecord struct {
	ProviderID      string
	ProviderName    string
	ProviderCity    string
	ProviderState   string
	ProviderZipCode string
}

type ProcedureRecord struct {
	MsDrgCode        string
	MsDrgDescription string
}

// FinancialRecord carries the four measures; nil means the source value was
// missing or unparseable.
type FinancialRecord struct {
	TotalDischarges         *int64
	AverageCoveredCharges   *float64
	AverageTotalPayments    *float64
	AverageMedicarePayments *float64
}

var titleCaser = cases.Title(language.English)

// ExtractProvider cleans the five provider fields and rejects the row when
// any of them is empty. The zip is reduced to digits and forced to exactly
// five of them; the state becomes an upper-case two-letter code.
func ExtractProvider(row Row) (ProviderRecord, bool) {
	rec := ProviderRecord{
		ProviderID:      CleanText(row[colProviderID], 0),
		ProviderName:    CleanText(row[colProviderName], maxNameLen),
		ProviderCity:    CleanText(row[colProviderCity], maxCityLen),
		ProviderState:   CleanText(row[colProviderState], 0),
		ProviderZipCode: CleanText(row[colProviderZip], 0),
	}
	if rec.ProviderID == "" || rec.ProviderName == "" || rec.ProviderCity == "" ||
		rec.ProviderState == "" || rec.ProviderZipCode == "" {
		return ProviderRecord{}, false
	}

	rec.ProviderZipCode = NormalizeZip(rec.ProviderZipCode)
	rec.ProviderState = strings.ToUpper(rec.ProviderState)
	if len(rec.ProviderState) > 2 {
		rec.ProviderState = rec.ProviderState[:2]
	}
	rec.ProviderCity = titleCaser.String(strings.ToLower(rec.ProviderCity))
	return rec, true
}

// NormalizeZip strips non-digits, left-pads short values with zeros and
// truncates long ones to five digits.
func NormalizeZip(zip string) string {
	var digits strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	z := digits.String()
	if len(z) < 5 {
		z = strings.Repeat("0", 5-len(z)) + z
	} else if len(z) > 5 {
		z = z[:5]
	}
	return z
}

// ExtractProcedure cleans the DRG code and description, dropping anything
// non-alphanumeric from the code. Either one empty rejects the row.
func ExtractProcedure(row Row) (ProcedureRecord, bool) {
	code := CleanText(row[colDrgCode], 0)
	desc := CleanText(row[colDrgDesc], maxDescLen)
	if code == "" || desc == "" {
		return ProcedureRecord{}, false
	}

	var b strings.Builder
	for _, r := range code {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	code = b.String()
	if code == "" {
		return ProcedureRecord{}, false
	}
	return ProcedureRecord{MsDrgCode: code, MsDrgDescription: desc}, true
}

// ExtractFinancials coerces the four numeric-like columns independently;
// currency formatting ($, thousands separators) is tolerated and parse
// failures become nil. The row is rejected only when all four are nil.
func ExtractFinancials(row Row) (FinancialRecord, bool) {
	discharges := parseCurrency(row[colDischarges])
	covered := parseCurrency(row[colCoveredCharge])
	total := parseCurrency(row[colTotalPayment])
	medicare := parseCurrency(row[colMedicarePay])

	if discharges == nil && covered == nil && total == nil && medicare == nil {
		return FinancialRecord{}, false
	}

	rec := FinancialRecord{
		AverageCoveredCharges:   covered,
		AverageTotalPayments:    total,
		AverageMedicarePayments: medicare,
	}
	if discharges != nil {
		n := int64(*discharges)
		rec.TotalDischarges = &n
	}
	return rec, true
}

func parseCurrency(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
