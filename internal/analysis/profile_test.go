package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
)

func salesFixture() *table.Table {
	b := table.NewBuilder("Date", "Category", "Qty", "Amount", "Note")
	qty := []float64{1, 2, 1, 3, 2, 1, 2, 40, 1, 2}
	cats := []string{"kurta", "set", "kurta", "top", "set", "kurta", "set", "kurta", "top", "set"}
	for i := range qty {
		day := time.Date(2022, 4, i+1, 0, 0, 0, 0, time.UTC)
		b.Add(table.Time(day), table.Text(cats[i]), table.Number(qty[i]), table.Number(qty[i]*300), table.Text("row "+cats[i]))
	}
	b.Add(table.Null(), table.Null(), table.Null(), table.Null(), table.Null())
	return b.Table()
}

func TestProfileKindsAndStats(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"Category"}
	opt.MaxCategories = 3
	rep := Profile("sales.csv", salesFixture(), opt)
	if rep.Rows != 11 {
		t.Fatalf("rows=%d", rep.Rows)
	}
	byName := map[string]ColumnSummary{}
	for _, c := range rep.Cols {
		byName[c.Name] = c
	}
	if k := byName["Date"].Kind; k != "datetime" {
		t.Fatalf("Date kind=%s", k)
	}
	if k := byName["Category"].Kind; k != "categorical" {
		t.Fatalf("Category kind=%s", k)
	}
	if top := byName["Category"].TopValues; len(top) == 0 || top[0].Value != "kurta" || top[0].Count != 4 {
		t.Fatalf("unexpected top values: %+v", top)
	}
	qty := byName["Qty"]
	if qty.Kind != "numeric" || qty.Min != 1 || qty.Max != 40 || qty.Missing != 1 {
		t.Fatalf("unexpected Qty summary: %+v", qty)
	}
	if qty.OutliersCount != 1 {
		t.Fatalf("expected one robust outlier in Qty, got %d", qty.OutliersCount)
	}
	if k := byName["Note"].Kind; k != "categorical" {
		t.Fatalf("Note kind=%s", k)
	}
	if len(rep.Groups) != 3 || rep.Groups[0].Size != 4 {
		t.Fatalf("unexpected groups: %+v", rep.Groups)
	}
	if rep.Corr == nil || rep.Corr.Values[0][1] < 0.999 {
		t.Fatalf("expected Qty~Amount correlation near 1, got %+v", rep.Corr)
	}
}

func TestProfileMarkdown(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"Category", "Region"}
	md := Profile("sales.csv", salesFixture(), opt).Markdown()
	for _, want := range []string{
		"# Dataset profile",
		"File: sales.csv",
		"| Column | Kind | Non-null | Missing | Summary |",
		"| Qty | numeric | 10 | 9.1% | min 1, max 40,",
		"| Date | datetime | 10 | 9.1% | 2022-04-01 to 2022-04-10 (10 days) |",
		"## Correlations",
		"- Qty ~ Amount: r=1.000",
		"## Sample rows",
		"| Date | Category | Qty | Amount | Note |",
		"group-by columns not found: Region",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestProfileMarkdownGroups(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"Category"}
	md := Profile("sales.csv", salesFixture(), opt).Markdown()
	for _, want := range []string{
		"## Group-by summary",
		"| Group | Rows | Amount mean | Amount range | Qty mean | Qty range |",
		"| Category=kurta | 4 | 3225 | 300..1.2e+04 | 10.75 | 1..40 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Notes") {
		t.Fatalf("unexpected notes section:\n%s", md)
	}
}

func TestProfileEmptyColumn(t *testing.T) {
	b := table.NewBuilder("x")
	b.Add(table.Null())
	rep := Profile("", b.Table(), Options{})
	if rep.Cols[0].Kind != "empty" || rep.Cols[0].Missing != 1 {
		t.Fatalf("unexpected summary: %+v", rep.Cols[0])
	}
	if strings.Contains(rep.Markdown(), "File:") {
		t.Fatalf("unnamed report should not print a file line")
	}
}
