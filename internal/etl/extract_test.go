package etl

import "testing"

func validRow() Row {
	return Row{
		colProviderID:    "330101",
		colProviderName:  "MOUNT SINAI HOSPITAL",
		colProviderCity:  "NEW YORK",
		colProviderState: "ny",
		colProviderZip:   "10001",
		colDrgCode:       "001",
		colDrgDesc:       "HEART TRANSPLANT OR IMPLANT OF HEART ASSIST SYSTEM W MCC",
		colDischarges:    "25",
		colCoveredCharge: "$1,234,567.89",
		colTotalPayment:  "$234,567.10",
		colMedicarePay:   "$200,000.00",
	}
}

func TestExtractProviderNormalizes(t *testing.T) {
	rec, ok := ExtractProvider(validRow())
	if !ok {
		t.Fatalf("ExtractProvider: unexpected reject")
	}
	if rec.ProviderState != "NY" {
		t.Fatalf("state: want=NY got=%q", rec.ProviderState)
	}
	if rec.ProviderCity != "New York" {
		t.Fatalf("city: want=%q got=%q", "New York", rec.ProviderCity)
	}
	if rec.ProviderZipCode != "10001" {
		t.Fatalf("zip: want=10001 got=%q", rec.ProviderZipCode)
	}
}

func TestExtractProviderRejectsMissingField(t *testing.T) {
	for _, col := range []string{colProviderID, colProviderName, colProviderCity, colProviderState, colProviderZip} {
		row := validRow()
		row[col] = "   "
		if _, ok := ExtractProvider(row); ok {
			t.Fatalf("ExtractProvider: expected reject when %s missing", col)
		}
	}
}

func TestNormalizeZip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123", "00123"},
		{"123456", "12345"},
		{"10001", "10001"},
		{"1000a1", "10001"},
		{"100-01", "10001"},
	}
	for _, tc := range cases {
		if got := NormalizeZip(tc.in); got != tc.want {
			t.Fatalf("NormalizeZip(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestExtractProcedureStripsNonAlphanumeric(t *testing.T) {
	row := validRow()
	row[colDrgCode] = " 00-1 "
	rec, ok := ExtractProcedure(row)
	if !ok {
		t.Fatalf("ExtractProcedure: unexpected reject")
	}
	if rec.MsDrgCode != "001" {
		t.Fatalf("code: want=001 got=%q", rec.MsDrgCode)
	}
}

func TestExtractProcedureRejectsEmpty(t *testing.T) {
	row := validRow()
	row[colDrgDesc] = ""
	if _, ok := ExtractProcedure(row); ok {
		t.Fatalf("ExtractProcedure: expected reject on empty description")
	}
}

func TestExtractFinancialsParsesCurrency(t *testing.T) {
	rec, ok := ExtractFinancials(validRow())
	if !ok {
		t.Fatalf("ExtractFinancials: unexpected reject")
	}
	if rec.TotalDischarges == nil || *rec.TotalDischarges != 25 {
		t.Fatalf("discharges: want=25 got=%v", rec.TotalDischarges)
	}
	if rec.AverageCoveredCharges == nil || *rec.AverageCoveredCharges != 1234567.89 {
		t.Fatalf("covered charges: want=1234567.89 got=%v", rec.AverageCoveredCharges)
	}
}

func TestExtractFinancialsNilOnParseFailure(t *testing.T) {
	row := validRow()
	row[colDischarges] = "not-a-number"
	rec, ok := ExtractFinancials(row)
	if !ok {
		t.Fatalf("ExtractFinancials: should accept with three valid fields")
	}
	if rec.TotalDischarges != nil {
		t.Fatalf("discharges: want=nil got=%v", *rec.TotalDischarges)
	}
}

func TestExtractFinancialsRejectsAllNil(t *testing.T) {
	row := validRow()
	row[colDischarges] = ""
	row[colCoveredCharge] = "n/a"
	row[colTotalPayment] = ""
	row[colMedicarePay] = "$"
	if _, ok := ExtractFinancials(row); ok {
		t.Fatalf("ExtractFinancials: expected reject when all four are unparseable")
	}
}
