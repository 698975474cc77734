package popularity_test

import (
	"testing"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/popularity"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func orders() *table.Table {
	b := table.NewBuilder("ASIN", "Qty", "Amount", "Status")
	b.Add(table.Text("A1"), table.Number(5), table.Number(50), table.Text("shipped"))
	b.Add(table.Text("A2"), table.Number(10), table.Number(20), table.Text("shipped"))
	b.Add(table.Text("A1"), table.Number(3), table.Null(), table.Text("shipped"))
	b.Add(table.Null(), table.Number(99), table.Number(1), table.Text("lost"))
	return b.Table()
}

func TestComputeQuantity(t *testing.T) {
	r := popularity.New(zerolog.Nop())
	out, err := r.Compute(orders(), "ASIN", popularity.Quantity)
	require.NoError(t, err)
	require.Equal(t, []string{"ASIN", "popularity"}, out.Columns())
	require.Equal(t, 2, out.Len())
	require.Equal(t, "A2", out.Value(0, "ASIN").String())
	require.Equal(t, "10", out.Value(0, "popularity").String())
	require.Equal(t, "A1", out.Value(1, "ASIN").String())
	require.Equal(t, "8", out.Value(1, "popularity").String())
}

func TestComputeRevenueSkipsMissing(t *testing.T) {
	r := popularity.New(zerolog.Nop())
	out, err := r.Compute(orders(), "ASIN", "Revenue")
	require.NoError(t, err)
	require.Equal(t, "A1", out.Value(0, "ASIN").String())
	require.Equal(t, "50", out.Value(0, "popularity").String())
}

func TestComputeTiesKeepProductOrder(t *testing.T) {
	b := table.NewBuilder("SKU", "Qty")
	b.Add(table.Text("c"), table.Number(1))
	b.Add(table.Text("a"), table.Number(1))
	b.Add(table.Text("b"), table.Number(1))
	out, err := popularity.New(zerolog.Nop()).Compute(b.Table(), "SKU", popularity.Quantity)
	require.NoError(t, err)
	for i, want := range []string{"a", "b", "c"} {
		require.Equal(t, want, out.Value(i, "SKU").String())
	}
}

func TestComputeErrors(t *testing.T) {
	r := popularity.New(zerolog.Nop())
	_, err := r.Compute(orders(), "SKU", popularity.Quantity)
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)

	_, err = r.Compute(orders(), "ASIN", "margin")
	var ve *table.ValueError
	require.ErrorAs(t, err, &ve)

	r.QuantityColumn = "Status"
	_, err = r.Compute(orders(), "ASIN", popularity.Quantity)
	var te *table.TypeError
	require.ErrorAs(t, err, &te)

	r.QuantityColumn = "Units"
	_, err = r.Compute(orders(), "ASIN", popularity.Quantity)
	require.ErrorAs(t, err, &se)
	require.Equal(t, []string{"Units"}, se.Missing)
}

func TestTopN(t *testing.T) {
	r := popularity.New(zerolog.Nop())
	pop, err := r.Compute(orders(), "ASIN", popularity.Quantity)
	require.NoError(t, err)

	top, err := r.TopN(pop, 1)
	require.NoError(t, err)
	require.Equal(t, 1, top.Len())
	require.Equal(t, "A2", top.Value(0, "ASIN").String())

	top, err = r.TopN(pop, 10)
	require.NoError(t, err)
	require.True(t, top.Equal(pop))

	for _, n := range []int{0, -3} {
		_, err = r.TopN(pop, n)
		var ve *table.ValueError
		require.ErrorAs(t, err, &ve)
	}
	_, err = r.TopN(orders(), 3)
	var ve *table.ValueError
	require.ErrorAs(t, err, &ve)
}
