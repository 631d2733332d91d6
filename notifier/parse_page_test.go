package notifier

import (
	"errors"
	"testing"
)

var pageFragment = []byte(`
<table>
  <tr><td>Total Cases</td><td>1,234</td></tr>
  <tr><td>Deaths</td><td>567</td></tr>
  <tr><td>Hospitalized (Ever)</td><td> 5,123 </td></tr>
</table>`)

func TestParsePage(t *testing.T) {
	got, err := ParsePage(pageFragment)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if got != 5123 {
		t.Fatalf("totalHospitalized = %d, want 5123", got)
	}
}

func TestParsePageCaseInsensitiveMatch(t *testing.T) {
	fragment := []byte(`<table><tr><td>HOSPITALIZED</td><td>42</td></tr></table>`)

	got, err := ParsePage(fragment)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if got != 42 {
		t.Fatalf("totalHospitalized = %d, want 42", got)
	}
}

func TestParsePageNoMatchingRow(t *testing.T) {
	fragment := []byte(`<table><tr><td>Deaths</td><td>567</td></tr></table>`)

	_, err := ParsePage(fragment)
	if err == nil {
		t.Fatal("expected an error when no row matches")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error %v does not match ErrParse", err)
	}
}

func TestParsePageEmptyCell(t *testing.T) {
	fragment := []byte(`<table><tr><td>Hospitalized (Ever)</td><td>  </td></tr></table>`)

	_, err := ParsePage(fragment)
	if err == nil {
		t.Fatal("expected an error for an empty adjacent cell")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error %v does not match ErrParse", err)
	}
}
