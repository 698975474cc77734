package table_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestReadFileInfersColumnKinds(t *testing.T) {
	p := writeFile(t, "sales.csv", "\ufeffOrder ID,Qty,Amount,ship-state\n"+
		"1,2,10.5,CA\n"+
		"2,,NaN,NY\n"+
		"3,1,7,\n")
	tbl, err := table.ReadFile(p, table.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"Order ID", "Qty", "Amount", "ship-state"}, tbl.Columns())
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, table.KindNumber, tbl.Kind("Qty"))
	require.Equal(t, table.KindNumber, tbl.Kind("Amount"))
	require.Equal(t, table.KindText, tbl.Kind("ship-state"))
	require.True(t, tbl.Value(1, "Qty").IsMissing())
	require.True(t, tbl.Value(2, "ship-state").IsMissing())
	require.Equal(t, 17.5, tbl.Sum("Amount", nil))
}

func TestReadFileHeaderNames(t *testing.T) {
	p := writeFile(t, "dups.csv", "a,,a,b\n1,2,3,4\n")
	tbl, err := table.ReadFile(p, table.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "Unnamed: 1", "a.1", "b"}, tbl.Columns())
}

func TestReadFileShortAndLongRows(t *testing.T) {
	p := writeFile(t, "short.csv", "a,b,c\n1,2\n")
	tbl, err := table.ReadFile(p, table.ReadOptions{})
	require.NoError(t, err)
	require.True(t, tbl.Value(0, "c").IsMissing())

	p = writeFile(t, "long.csv", "a,b\n1,2\n1,2,3\n")
	_, err = table.ReadFile(p, table.ReadOptions{})
	var pe *table.ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 3, pe.Line)
}

func TestReadFileErrors(t *testing.T) {
	_, err := table.ReadFile(filepath.Join(t.TempDir(), "nope.csv"), table.ReadOptions{})
	var nf *table.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = table.ReadFile(t.TempDir(), table.ReadOptions{})
	require.ErrorAs(t, err, &nf)

	p := writeFile(t, "empty.csv", "")
	_, err = table.ReadFile(p, table.ReadOptions{})
	var pe *table.ParseError
	require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
}

func TestReadFileLocaleNumbers(t *testing.T) {
	p := writeFile(t, "eu.csv", "Amount;Note\n1.234,5;x\n0,5;y\n")
	tbl, err := table.ReadFile(p, table.ReadOptions{
		Delimiter: ';',
		Number:    table.NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'},
	})
	require.NoError(t, err)
	require.Equal(t, table.KindNumber, tbl.Kind("Amount"))
	f, ok := tbl.Value(0, "Amount").Float()
	require.True(t, ok)
	require.InDelta(t, 1234.5, f, 1e-9)
}

func TestWriteFileRoundTripCSV(t *testing.T) {
	b := table.NewBuilder("SKU", "Qty", "Date")
	day := time.Date(2022, 4, 30, 0, 0, 0, 0, time.UTC)
	b.Add(table.Text("A1"), table.Number(3), table.Time(day))
	b.Add(table.Text("A2"), table.Number(math.NaN()), table.Null())
	p := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, table.WriteFile(p, b.Table()))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "SKU,Qty,Date\nA1,3,2022-04-30\nA2,,\n", string(raw))
}

func TestWriteFileRoundTripXLSX(t *testing.T) {
	b := table.NewBuilder("SKU", "Qty")
	b.Add(table.Text("A1"), table.Number(3))
	b.Add(table.Text("A2"), table.Number(1.5))
	p := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, table.WriteFile(p, b.Table()))

	got, err := table.ReadFile(p, table.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"SKU", "Qty"}, got.Columns())
	require.Equal(t, 4.5, got.Sum("Qty", nil))
}

func TestGroupBySkipsMissingAndSorts(t *testing.T) {
	b := table.NewBuilder("k", "v")
	b.Add(table.Text("b"), table.Number(1))
	b.Add(table.Null(), table.Number(5))
	b.Add(table.Text("a"), table.Number(2))
	b.Add(table.Text("b"), table.Number(math.NaN()))
	groups := b.Table().GroupBy("k")
	require.Len(t, groups, 2)
	require.Equal(t, "a", groups[0].Key[0].String())
	require.Equal(t, []int{0, 3}, groups[1].Rows)
	require.Equal(t, 1.0, b.Table().Sum("v", groups[1].Rows))
}

func TestGroupByNegativeZero(t *testing.T) {
	b := table.NewBuilder("k", "v")
	b.Add(table.Number(0), table.Number(1))
	b.Add(table.Number(math.Copysign(0, -1)), table.Number(2))
	groups := b.Table().GroupBy("k")
	require.Len(t, groups, 1)
	require.Equal(t, []int{0, 1}, groups[0].Rows)
	require.Equal(t, table.Number(0).Key(), table.Number(math.Copysign(0, -1)).Key())
}

func TestSelectAndWithColumn(t *testing.T) {
	b := table.NewBuilder("a", "b")
	b.Add(table.Number(1), table.Text("x"))
	tbl := b.Table()

	_, err := tbl.Select("a", "zzz")
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, []string{"zzz"}, se.Missing)

	out, err := tbl.WithColumn("a", []table.Value{table.Number(9)})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, out.Columns())
	require.Equal(t, "9", out.Value(0, "a").String())
	require.Equal(t, "1", tbl.Value(0, "a").String(), "original must not change")
}

func TestParseTimeAmazonLayout(t *testing.T) {
	got, ok := table.ParseTime("04-30-22")
	require.True(t, ok)
	require.Equal(t, time.Date(2022, 4, 30, 0, 0, 0, 0, time.UTC), got)

	got, ok = table.ParseTimeLayout("30/04/2022", "%d/%m/%Y")
	require.True(t, ok)
	require.Equal(t, time.April, got.Month())

	_, ok = table.ParseTime("not a date")
	require.False(t, ok)
}

func TestAllMissingColumnIsNumeric(t *testing.T) {
	b := table.NewBuilder("x")
	b.Add(table.Null())
	require.Equal(t, table.KindNumber, b.Table().Kind("x"))
	require.Equal(t, table.KindMissing, b.Table().Kind("nope"))
}
