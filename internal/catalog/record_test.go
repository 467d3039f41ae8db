package catalog

import (
	"reflect"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"ongoing":   StatusOngoing,
		"RELEASED ": StatusReleased,
		"anons":     StatusOther,
		"":          StatusOther,
	}
	for in, want := range tests {
		if got := ParseStatus(in); got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateTitles(t *testing.T) {
	record := Record{Titles: []string{"  Fullmetal Alchemist ", "", "FULLMETAL ALCHEMIST", "Стальной алхимик"}}
	want := []string{"Fullmetal Alchemist", "Стальной алхимик"}
	if got := record.CandidateTitles(); !reflect.DeepEqual(got, want) {
		t.Fatalf("CandidateTitles = %#v, want %#v", got, want)
	}
	if got := (Record{Titles: []string{" "}}).CandidateTitles(); len(got) != 0 {
		t.Fatalf("expected no candidates for blank titles, got %#v", got)
	}
}

func TestRebindNumbersPlaceholders(t *testing.T) {
	query := "UPDATE records SET a = ?, b = ? WHERE id = ?"
	if got := sqliteDialect.rebind(query); got != query {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	want := "UPDATE records SET a = $1, b = $2 WHERE id = $3"
	if got := postgresDialect.rebind(query); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\nCREATE INDEX i ON a(x);\n")
	if len(got) != 2 || got[1] != "CREATE INDEX i ON a(x)" {
		t.Fatalf("unexpected statements %#v", got)
	}
}
