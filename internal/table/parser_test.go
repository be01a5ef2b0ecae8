package table

import (
	"reflect"
	"testing"
)

func TestParseCSV(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want [][]string
	}{
		{
			name: "simple rows",
			in:   "a,b,c\n1,2,3",
			want: [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name: "quoted comma stays in field",
			in:   `Driver,"Smith, John",BD78`,
			want: [][]string{{"Driver", "Smith, John", "BD78"}},
		},
		{
			name: "blank lines skipped",
			in:   "a,b\n\n  \n1,2\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "ragged rows pass through",
			in:   "a,b,c\n1,2",
			want: [][]string{{"a", "b", "c"}, {"1", "2"}},
		},
		{
			name: "crlf line endings",
			in:   "a,b\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "trailing comma yields empty field",
			in:   "a,b,\n",
			want: [][]string{{"a", "b", ""}},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCSV(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseCSV(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsValidHeader(t *testing.T) {
	valid := []string{"Date", "Truck Reg", " Driver ", "Stop Time", "Dist (km)"}
	for _, h := range valid {
		if !IsValidHeader(h) {
			t.Errorf("expected %q to be valid", h)
		}
	}
	invalid := []string{"", "   ", "-", "null", "NULL", "undefined", "NaN", "column", "Column 3", "COLUMN12"}
	for _, h := range invalid {
		if IsValidHeader(h) {
			t.Errorf("expected %q to be rejected", h)
		}
	}
}

func TestClassifyHeadersProjection(t *testing.T) {
	raw := []string{"Date", "", "Truck", "Column 4", "Dist"}
	headers, keep := ClassifyHeaders(raw)

	wantHeaders := []string{"Date", "Truck", "Dist"}
	if !reflect.DeepEqual(headers, wantHeaders) {
		t.Fatalf("headers = %v, want %v", headers, wantHeaders)
	}
	if !reflect.DeepEqual(keep, []int{0, 2, 4}) {
		t.Fatalf("keep = %v, want [0 2 4]", keep)
	}

	row := Project([]string{"01/15/24", "junk", " BD78 ", "x", "44,8"}, keep)
	if !reflect.DeepEqual(row, []string{"01/15/24", "BD78", "44,8"}) {
		t.Fatalf("projected row = %v", row)
	}

	// Ragged row: missing trailing cells become empty, keeping alignment.
	short := Project([]string{"01/15/24"}, keep)
	if !reflect.DeepEqual(short, []string{"01/15/24", "", ""}) {
		t.Fatalf("short row = %v", short)
	}
}

func TestLoad(t *testing.T) {
	csv := "Date,,Truck,Column 2,Start,End\n" +
		"01/15/24,x,BD78NGZN,y,100,145\n" +
		",,,,,\n" +
		"01/16/24,x,CS44GHNZ,y,200,220\n"

	tab := Load("MAIN", "main", csv)
	if got := len(tab.Headers); got != 4 {
		t.Fatalf("expected 4 headers, got %d: %v", got, tab.Headers)
	}
	if got := len(tab.Rows); got != 2 {
		t.Fatalf("expected 2 rows (empty row excluded), got %d", got)
	}
	for i, row := range tab.Rows {
		if len(row) != len(tab.Headers) {
			t.Errorf("row %d has %d cells, want %d", i, len(row), len(tab.Headers))
		}
	}
}

func TestLoadEmptyInput(t *testing.T) {
	tab := Load("MAIN", "main", "")
	if len(tab.Headers) != 0 || len(tab.Rows) != 0 {
		t.Fatalf("expected empty table, got %+v", tab)
	}
}
