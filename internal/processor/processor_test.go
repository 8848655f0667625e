package processor

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

func int64Ptr(n int64) *int64 { return &n }

// mustProcess processes sql and returns the resulting Select.
func mustProcess(t *testing.T, sql string) *ir.Select {
	t.Helper()
	stmt, err := ProcessSQL(context.Background(), sql)
	require.NoError(t, err, "sql: %s", sql)
	sel, ok := stmt.(*ir.Select)
	require.True(t, ok, "expected *ir.Select, got %T", stmt)
	return sel
}

func TestProcess_SelectStar(t *testing.T) {
	sel := mustProcess(t, "select * from books")

	assert.Equal(t, &ir.Select{
		From:    "books",
		Targets: []ir.Target{&ir.ColumnTarget{Column: "*"}},
	}, sel)
}

func TestProcess_ColumnTargets(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []ir.Target
	}{
		{
			name: "columns",
			sql:  "select title, description from books",
			want: []ir.Target{&ir.ColumnTarget{Column: "title"}, &ir.ColumnTarget{Column: "description"}},
		},
		{
			name: "alias",
			sql:  "select title as my_title from books",
			want: []ir.Target{&ir.ColumnTarget{Column: "title", Alias: "my_title"}},
		},
		{
			name: "alias equal to column is dropped",
			sql:  "select title as title from books",
			want: []ir.Target{&ir.ColumnTarget{Column: "title"}},
		},
		{
			name: "qualified by primary relation",
			sql:  "select books.title from books",
			want: []ir.Target{&ir.ColumnTarget{Column: "title"}},
		},
		{
			name: "qualified by primary alias",
			sql:  "select b.title from books b",
			want: []ir.Target{&ir.ColumnTarget{Column: "title"}},
		},
		{
			name: "cast",
			sql:  "select pages::float from books",
			want: []ir.Target{&ir.ColumnTarget{Column: "pages", Cast: "float"}},
		},
		{
			name: "cast with alias",
			sql:  `select pages::float as "partialPages" from books`,
			want: []ir.Target{&ir.ColumnTarget{Column: "pages", Alias: "partialPages", Cast: "float"}},
		},
		{
			name: "json path",
			sql:  "select address->'city'->>'name' as city from users",
			want: []ir.Target{&ir.ColumnTarget{Column: "address->city->>name", Alias: "city"}},
		},
		{
			name: "json array index with cast",
			sql:  "select (tags->>0)::int from users",
			want: []ir.Target{&ir.ColumnTarget{Column: "tags->>0", Cast: "int"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := mustProcess(t, tt.sql)
			assert.Equal(t, tt.want, sel.Targets)
		})
	}
}

func TestProcess_Aggregates(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []ir.Target
	}{
		{
			name: "count star",
			sql:  "select count(*) from books",
			want: []ir.Target{&ir.AggregateTarget{FunctionName: ir.AggregateCount}},
		},
		{
			name: "count no args",
			sql:  "select count() from books",
			want: []ir.Target{&ir.AggregateTarget{FunctionName: ir.AggregateCount}},
		},
		{
			name: "sum with casts and alias",
			sql:  "select sum(pages::int)::float as total from books",
			want: []ir.Target{&ir.AggregateTarget{
				FunctionName: ir.AggregateSum,
				Column:       "pages",
				InputCast:    "int",
				OutputCast:   "float",
				Alias:        "total",
			}},
		},
		{
			name: "grouped",
			sql:  "select author_id, avg(pages) from books group by author_id",
			want: []ir.Target{
				&ir.ColumnTarget{Column: "author_id"},
				&ir.AggregateTarget{FunctionName: ir.AggregateAvg, Column: "pages"},
			},
		},
		{
			name: "aggregate over json path",
			sql:  "select max(data->>'price') from orders",
			want: []ir.Target{&ir.AggregateTarget{FunctionName: ir.AggregateMax, Column: "data->>price"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := mustProcess(t, tt.sql)
			assert.Equal(t, tt.want, sel.Targets)
		})
	}
}

func TestProcess_Join(t *testing.T) {
	want := []ir.Target{
		&ir.ColumnTarget{Column: "title"},
		&ir.EmbeddedTarget{
			Relation: "authors",
			JoinType: ir.JoinInner,
			JoinedColumns: ir.JoinedColumns{
				Left:  ir.JoinedColumn{Relation: "books", Column: "author_id"},
				Right: ir.JoinedColumn{Relation: "authors", Column: "id"},
			},
			Targets: []ir.Target{&ir.ColumnTarget{Column: "name"}},
			Flatten: true,
		},
	}

	t.Run("parent on left", func(t *testing.T) {
		sel := mustProcess(t, "select title, authors.name from books join authors on books.author_id = authors.id")
		assert.Equal(t, want, sel.Targets)
	})

	t.Run("parent on right", func(t *testing.T) {
		sel := mustProcess(t, "select title, authors.name from books join authors on authors.id = books.author_id")
		assert.Equal(t, want, sel.Targets)
	})

	t.Run("unqualified side defaults to primary", func(t *testing.T) {
		sel := mustProcess(t, "select title, authors.name from books join authors on author_id = authors.id")
		assert.Equal(t, want, sel.Targets)
	})
}

func TestProcess_LeftJoinWithAliases(t *testing.T) {
	sel := mustProcess(t, "select b.title, a.name from books b left join authors a on a.id = b.author_id")

	require.Len(t, sel.Targets, 2)
	assert.Equal(t, &ir.ColumnTarget{Column: "title"}, sel.Targets[0])
	assert.Equal(t, &ir.EmbeddedTarget{
		Relation: "authors",
		Alias:    "a",
		JoinType: ir.JoinLeft,
		JoinedColumns: ir.JoinedColumns{
			Left:  ir.JoinedColumn{Relation: "b", Column: "author_id"},
			Right: ir.JoinedColumn{Relation: "a", Column: "id"},
		},
		Targets: []ir.Target{&ir.ColumnTarget{Column: "name"}},
		Flatten: true,
	}, sel.Targets[1])
}

func TestProcess_NestedJoins(t *testing.T) {
	sel := mustProcess(t, `
		select books.title, authors.name, publishers.name as publisher
		from books
		join authors on books.author_id = authors.id
		left join publishers on publishers.id = authors.publisher_id`)

	require.Len(t, sel.Targets, 2)
	authors, ok := sel.Targets[1].(*ir.EmbeddedTarget)
	require.True(t, ok)
	assert.Equal(t, "authors", authors.Relation)

	require.Len(t, authors.Targets, 2)
	assert.Equal(t, &ir.ColumnTarget{Column: "name"}, authors.Targets[0])

	publishers, ok := authors.Targets[1].(*ir.EmbeddedTarget)
	require.True(t, ok)
	assert.Equal(t, ir.JoinLeft, publishers.JoinType)
	assert.Equal(t, ir.JoinedColumn{Relation: "authors", Column: "publisher_id"}, publishers.JoinedColumns.Left)
	assert.Equal(t, ir.JoinedColumn{Relation: "publishers", Column: "id"}, publishers.JoinedColumns.Right)
	assert.Equal(t, []ir.Target{&ir.ColumnTarget{Column: "name", Alias: "publisher"}}, publishers.Targets)
}

func TestProcess_JoinWithoutSelectedColumns(t *testing.T) {
	sel := mustProcess(t, "select * from books join authors on books.author_id = authors.id")

	require.Len(t, sel.Targets, 2)
	embedded := sel.Targets[1].(*ir.EmbeddedTarget)
	assert.Empty(t, embedded.Targets)
}

func TestProcess_Where(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want ir.Filter
	}{
		{
			name: "equal",
			sql:  "select * from books where title = 'Cheese'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Cheese")},
		},
		{
			name: "not equal",
			sql:  "select * from books where title != 'Cheese'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpNeq, Value: ir.String("Cheese")},
		},
		{
			name: "not folded into comparison",
			sql:  "select * from books where not title = 'Cheese'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Cheese"), Negate: true},
		},
		{
			name: "double not cancels",
			sql:  "select * from books where not not title = 'Cheese'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Cheese")},
		},
		{
			name: "float",
			sql:  "select * from books where pages > 10.1",
			want: &ir.ColumnFilter{Column: "pages", Operator: ir.OpGt, Value: ir.Numeric("10.1")},
		},
		{
			name: "trailing zero kept",
			sql:  "select * from books where price = 10.0",
			want: &ir.ColumnFilter{Column: "price", Operator: ir.OpEq, Value: ir.Numeric("10.0")},
		},
		{
			name: "integer beyond int64",
			sql:  "select * from books where id = 12345678901234567890",
			want: &ir.ColumnFilter{Column: "id", Operator: ir.OpEq, Value: ir.Numeric("12345678901234567890")},
		},
		{
			name: "bare fraction",
			sql:  "select * from books where ratio < .5",
			want: &ir.ColumnFilter{Column: "ratio", Operator: ir.OpLt, Value: ir.Numeric("0.5")},
		},
		{
			name: "exponent",
			sql:  "select * from books where pages > 1.5e3",
			want: &ir.ColumnFilter{Column: "pages", Operator: ir.OpGt, Value: ir.Numeric("1.5e3")},
		},
		{
			name: "negative int",
			sql:  "select * from books where pages >= -5",
			want: &ir.ColumnFilter{Column: "pages", Operator: ir.OpGte, Value: ir.Int(-5)},
		},
		{
			name: "big int",
			sql:  "select * from books where id = 9999999999",
			want: &ir.ColumnFilter{Column: "id", Operator: ir.OpEq, Value: ir.Int(9999999999)},
		},
		{
			name: "is null",
			sql:  "select * from books where title is null",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpIs, Value: ir.Null{}},
		},
		{
			name: "is not null",
			sql:  "select * from books where title is not null",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpIs, Value: ir.Null{}, Negate: true},
		},
		{
			name: "like",
			sql:  "select * from books where title like 'T%'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpLike, Value: ir.String("T%")},
		},
		{
			name: "not ilike",
			sql:  "select * from books where title not ilike '%salsa%'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpILike, Value: ir.String("%salsa%"), Negate: true},
		},
		{
			name: "regex match",
			sql:  "select * from books where title ~ '^T'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpMatch, Value: ir.String("^T")},
		},
		{
			name: "negated case-insensitive regex",
			sql:  "select * from books where title !~* '^t'",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpIMatch, Value: ir.String("^t"), Negate: true},
		},
		{
			name: "in",
			sql:  "select * from books where id in (1, 2, 3)",
			want: &ir.ColumnFilter{Column: "id", Operator: ir.OpIn, Value: ir.List{ir.Int(1), ir.Int(2), ir.Int(3)}},
		},
		{
			name: "not in",
			sql:  "select * from books where title not in ('a', 'b')",
			want: &ir.ColumnFilter{Column: "title", Operator: ir.OpIn, Value: ir.List{ir.String("a"), ir.String("b")}, Negate: true},
		},
		{
			name: "json path",
			sql:  "select * from users where address->>'city' = 'Paris'",
			want: &ir.ColumnFilter{Column: "address->>city", Operator: ir.OpEq, Value: ir.String("Paris")},
		},
		{
			name: "json path with cast",
			sql:  "select * from users where (data->>'age')::int > 30",
			want: &ir.ColumnFilter{Column: "data->>age::int", Operator: ir.OpGt, Value: ir.Int(30)},
		},
		{
			name: "or",
			sql:  "select * from books where title = 'Cheese' or title = 'Salsa'",
			want: &ir.LogicalFilter{Operator: ir.LogicalOr, Values: []ir.Filter{
				&ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Cheese")},
				&ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Salsa")},
			}},
		},
		{
			name: "negated and",
			sql:  "select * from books where not (title = 'Cheese' and description ilike '%salsa%')",
			want: &ir.LogicalFilter{Operator: ir.LogicalAnd, Negate: true, Values: []ir.Filter{
				&ir.ColumnFilter{Column: "title", Operator: ir.OpEq, Value: ir.String("Cheese")},
				&ir.ColumnFilter{Column: "description", Operator: ir.OpILike, Value: ir.String("%salsa%")},
			}},
		},
		{
			name: "nested",
			sql:  "select * from books where title like 'T%' and (description ilike '%tacos%' or not description ilike '%salsa%')",
			want: &ir.LogicalFilter{Operator: ir.LogicalAnd, Values: []ir.Filter{
				&ir.ColumnFilter{Column: "title", Operator: ir.OpLike, Value: ir.String("T%")},
				&ir.LogicalFilter{Operator: ir.LogicalOr, Values: []ir.Filter{
					&ir.ColumnFilter{Column: "description", Operator: ir.OpILike, Value: ir.String("%tacos%")},
					&ir.ColumnFilter{Column: "description", Operator: ir.OpILike, Value: ir.String("%salsa%"), Negate: true},
				}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := mustProcess(t, tt.sql)
			assert.Equal(t, tt.want, sel.Filter)
		})
	}
}

func TestProcess_WhereOnJoinedRelation(t *testing.T) {
	sel := mustProcess(t, `
		select title
		from books
		join authors a on a.id = books.author_id
		join publishers on publishers.id = a.publisher_id
		where a.name = 'Ann' and publishers.country = 'FR'`)

	assert.Equal(t, &ir.LogicalFilter{Operator: ir.LogicalAnd, Values: []ir.Filter{
		&ir.ColumnFilter{Column: "authors.name", Operator: ir.OpEq, Value: ir.String("Ann")},
		&ir.ColumnFilter{Column: "authors.publishers.country", Operator: ir.OpEq, Value: ir.String("FR")},
	}}, sel.Filter)
}

func TestProcess_Sorts(t *testing.T) {
	sel := mustProcess(t, "select * from books order by title, pages asc, author_id desc nulls last, data->>'rank' nulls first")

	assert.Equal(t, []ir.Sort{
		{Column: "title"},
		{Column: "pages", Direction: ir.SortAsc},
		{Column: "author_id", Direction: ir.SortDesc, Nulls: ir.NullsLast},
		{Column: "data->>rank", Nulls: ir.NullsFirst},
	}, sel.Sorts)
}

func TestProcess_Limit(t *testing.T) {
	tests := []struct {
		sql  string
		want *ir.Limit
	}{
		{"select * from books limit 5", &ir.Limit{Count: int64Ptr(5)}},
		{"select * from books offset 10", &ir.Limit{Offset: int64Ptr(10)}},
		{"select * from books limit 5 offset 10", &ir.Limit{Count: int64Ptr(5), Offset: int64Ptr(10)}},
		{"select * from books fetch first 3 rows only", &ir.Limit{Count: int64Ptr(3)}},
		{"select * from books limit all", nil},
		{"select * from books", nil},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			sel := mustProcess(t, tt.sql)
			assert.Equal(t, tt.want, sel.Limit)
		})
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		check   func(error) bool
		message string
		hint    string
	}{
		// Statement kinds
		{"insert", "insert into books (title) values ('x')", sqlerr.IsUnimplemented, "Insert statements are not yet implemented by the translator", ""},
		{"update", "update books set title = 'x'", sqlerr.IsUnimplemented, "Update statements are not yet implemented by the translator", ""},
		{"delete", "delete from books", sqlerr.IsUnimplemented, "Delete statements are not yet implemented by the translator", ""},
		{"explain", "explain select * from books", sqlerr.IsUnimplemented, "Explain statements are not yet implemented by the translator", ""},
		{"create", "create table t (id int)", sqlerr.IsUnimplemented, "Create statements are not yet implemented by the translator", ""},
		{"multiple statements", "select * from a; select * from b", sqlerr.IsUnsupported, "Expected a single statement, but received multiple", ""},
		{"empty", "", sqlerr.IsUnsupported, "Expected a statement, but received none", ""},
		{"parse error", "select title, from books", sqlerr.IsParsing, `Syntax error at or near "from"`, "Did you leave a trailing comma in the select target list?"},

		// SELECT shape
		{"no from", "select 'Test'", sqlerr.IsUnsupported, "The query must select from a relation", "Did you forget to include a FROM clause?"},
		{"empty target list", "select from books", sqlerr.IsUnsupported, "The query must select at least one target", "Select a column or * to return rows"},
		{"multiple from", "select * from books, authors", sqlerr.IsUnsupported, "Only one FROM source is supported", "Use a JOIN to combine relations"},
		{"cte", "with b as (select * from books) select * from b", sqlerr.IsUnsupported, "CTEs are not supported", ""},
		{"having", "select author_id, count(*) from books group by author_id having count(*) > 1", sqlerr.IsUnsupported, "The HAVING clause is not supported", ""},
		{"distinct", "select distinct title from books", sqlerr.IsUnsupported, "SELECT DISTINCT is not supported", ""},
		{"union", "select title from books union select title from magazines", sqlerr.IsUnsupported, "Set operations (UNION, INTERSECT, EXCEPT) are not supported", ""},
		{"subquery in from", "select * from (select * from books) b", sqlerr.IsUnsupported, "Subqueries are not supported in the FROM clause", ""},
		{"schema qualified", "select * from public.books", sqlerr.IsUnsupported, "Schema-qualified relations are not supported: public.books", "The schema is chosen by the request profile, not the path. Remove the schema qualifier."},

		// Targets
		{"expression target", "select 1 + 1 from books", sqlerr.IsUnsupported, "Only columns, JSON fields and aggregates are supported as query targets, found AExpr", ""},
		{"constant target", "select 'x' from books", sqlerr.IsUnsupported, "Only columns, JSON fields and aggregates are supported as query targets, found AConst", ""},
		{"unknown function", "select upper(title) from books", sqlerr.IsUnsupported, "Unsupported function 'upper'", "Only the aggregate functions avg, count, max, min and sum are supported"},
		{"window function", "select count(*) over () from books", sqlerr.IsUnsupported, "Window functions are not supported", ""},
		{"distinct aggregate", "select count(distinct title) from books", sqlerr.IsUnsupported, "DISTINCT inside aggregate functions is not supported", ""},
		{"sum star", "select sum(*) from books", sqlerr.IsUnsupported, "sum() requires a column argument", ""},
		{"foreign column", "select authors.name from books", sqlerr.IsUnsupported, "Found foreign column 'authors.name' in target list without a join to that relation", hintMissingJoin},
		{"double cast", "select pages::int::text from books", sqlerr.IsUnsupported, "Only one cast per column is supported", ""},

		// Joins
		{"full join", "select * from books full join authors on books.author_id = authors.id", sqlerr.IsUnsupported, "Only inner and left joins are supported, found full join", ""},
		{"right join", "select * from books right join authors on books.author_id = authors.id", sqlerr.IsUnsupported, "Only inner and left joins are supported, found right join", ""},
		{"using", "select * from books join authors using (author_id)", sqlerr.IsUnsupported, "Joins with USING are not supported", "Join on explicit columns with ON instead"},
		{"cross join", "select * from books cross join authors", sqlerr.IsUnsupported, "Joins must have an ON qualifier comparing two columns", ""},
		{"non equality", "select * from books join authors on books.author_id > authors.id", sqlerr.IsUnsupported, "Join qualifier only supports the '=' operator, found '>'", ""},
		{"same relation", "select * from books join authors on authors.id = authors.author_id", sqlerr.IsUnsupported, "Join qualifier cannot compare columns from same relation", ""},
		{"no joined column", "select * from books join authors on books.id = books.author_id", sqlerr.IsUnsupported, "Join qualifier must reference a column from the joined table 'authors'", ""},
		{"unknown relation", "select * from books join authors on editors.id = authors.id", sqlerr.IsUnsupported, "Join qualifier references unknown relation 'editors'", hintMissingJoin},
		{"multiple conditions", "select * from books join authors on books.author_id = authors.id and authors.active = true", sqlerr.IsUnsupported, "Join qualifiers with more than one condition are not supported", ""},
		{"duplicate relation", "select * from books join authors on books.author_id = authors.id join authors on books.editor_id = authors.id", sqlerr.IsUnsupported, "Relation 'authors' appears more than once in the FROM clause", "Alias one of the relations to a unique name"},
		{"same relation joined twice", "select b.title, a.name, c.name from books b join authors a on b.author_id = a.id join authors c on b.coauthor_id = c.id", sqlerr.IsUnsupported, "Relation 'authors' is joined more than once to 'b'", "Join the relation once, or query the second role in a separate request"},

		// WHERE
		{"cast in where", "select * from books where pages::float > 10.0", sqlerr.IsUnsupported, "Casts are not supported on columns in the WHERE clause", ""},
		{"unquoted value", "select * from books where title = Cheese", sqlerr.IsUnsupported, "Filter values must be constants, found column 'cheese'", hintQuoteValue},
		{"compare with null", "select * from books where title = null", sqlerr.IsUnsupported, "Comparisons with NULL are not supported", "Use IS NULL or IS NOT NULL"},
		{"unknown operator", "select * from books where tags @> 'x'", sqlerr.IsUnsupported, "Unsupported operator '@>'", ""},
		{"between", "select * from books where pages between 1 and 2", sqlerr.IsUnsupported, "BETWEEN is not supported", "Use two comparisons joined with AND"},
		{"subquery in where", "select * from books where id in (select book_id from reviews)", sqlerr.IsUnsupported, "Subqueries are not supported in the WHERE clause", ""},
		{"aggregate in where", "select * from books where count(*) > 1", sqlerr.IsUnsupported, "Aggregate functions are only supported in the target list", ""},
		{"foreign column in where", "select * from books where authors.name = 'x'", sqlerr.IsUnsupported, "Found foreign column 'authors.name' in WHERE clause without a join to that relation", hintMissingJoin},
		{"bare column", "select * from books where active", sqlerr.IsUnsupported, "Unsupported WHERE clause expression: ColumnRef", ""},

		// ORDER BY and LIMIT
		{"cast in order by", "select * from books order by pages::float desc", sqlerr.IsUnsupported, "Casts are not supported in the ORDER BY clause", ""},
		{"order by joined column", "select * from books join authors on books.author_id = authors.id order by authors.name", sqlerr.IsUnsupported, "Ordering by a column of joined relation 'authors' is not supported", ""},
		{"order by expression", "select * from books order by pages + 1", sqlerr.IsUnsupported, "Only columns and JSON fields are supported in the ORDER BY clause, found AExpr", ""},
		{"limit expression", "select * from books limit 1 + 1", sqlerr.IsUnsupported, "LIMIT must be an integer constant, found AExpr", ""},
		{"with ties", "select * from books order by title fetch first 3 rows with ties", sqlerr.IsUnsupported, "FETCH ... WITH TIES is not supported", ""},

		// GROUP BY
		{"ungrouped column", "select title, count(*) from books", sqlerr.IsUnsupported, "Column 'title' must appear in the GROUP BY clause or be used in an aggregate function", ""},
		{"group column not selected", "select count(*) from books group by title", sqlerr.IsUnsupported, "Every column in the GROUP BY clause must also be in the target list, missing 'title'", ""},
		{"group without aggregate", "select title from books group by title", sqlerr.IsUnsupported, "A GROUP BY clause requires at least one aggregate function in the target list", ""},
		{"group by expression", "select count(*) from books group by pages + 1", sqlerr.IsUnsupported, "Only columns are supported in the GROUP BY clause, found AExpr", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := ProcessSQL(context.Background(), tt.sql)

			require.Error(t, err)
			assert.Nil(t, stmt)
			assert.True(t, tt.check(err), "unexpected error kind %T: %v", err, err)
			assert.Equal(t, tt.message, errorMessage(err))
			assert.Equal(t, tt.hint, sqlerr.HintOf(err))
		})
	}
}

// errorMessage returns the taxonomy message without renderer prefixes.
func errorMessage(err error) string {
	switch e := err.(type) {
	case *sqlerr.ParsingError:
		return e.Message
	case *sqlerr.UnsupportedError:
		return e.Message
	case *sqlerr.UnimplementedError:
		return e.Message
	}
	return err.Error()
}

func TestProcess_GroupByJoinedColumn(t *testing.T) {
	sel := mustProcess(t, `
		select authors.name, count(books.id)
		from books
		join authors on books.author_id = authors.id
		group by authors.name`)

	require.Len(t, sel.Targets, 2)
	assert.Equal(t, &ir.AggregateTarget{FunctionName: ir.AggregateCount, Column: "id"}, sel.Targets[0])
	embedded := sel.Targets[1].(*ir.EmbeddedTarget)
	assert.Equal(t, []ir.Target{&ir.ColumnTarget{Column: "name"}}, embedded.Targets)
}

func TestProcess_ResultIsValidIR(t *testing.T) {
	sel := mustProcess(t, `
		select b.title, a.name, count(*)
		from books b
		left join authors a on a.id = b.author_id
		where b.pages > 100 or not (a.name like 'A%')
		group by b.title, a.name
		order by title desc
		limit 10 offset 20`)

	result := ir.Validate(sel)
	assert.True(t, result.Valid, "problems: %v", result.Problems)
}

func TestProcess_Deterministic(t *testing.T) {
	sql := "select title, authors.name from books join authors on authors.id = books.author_id where title = 'x' order by title limit 3"

	first, err := ir.Fingerprint(mustProcess(t, sql))
	require.NoError(t, err)

	reformatted, err := ir.Fingerprint(mustProcess(t, "SELECT title, authors.name FROM books JOIN authors ON authors.id = books.author_id WHERE (title = 'x') ORDER BY title LIMIT 3"))
	require.NoError(t, err)

	assert.Equal(t, first, reformatted)
}

type stubParser struct {
	result *pg_query.ParseResult
	err    error
	calls  int
}

func (s *stubParser) Parse(ctx context.Context, sql string) (*pg_query.ParseResult, error) {
	s.calls++
	return s.result, s.err
}

func TestProcessor_WithParser(t *testing.T) {
	parsed, err := pg_query.Parse("select title from books")
	require.NoError(t, err)

	stub := &stubParser{result: parsed}
	p := New(WithParser(stub))

	stmt, err := p.ProcessSQL(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "books", stmt.(*ir.Select).From)
}

func TestProcessor_ParserErrorPassesThrough(t *testing.T) {
	stub := &stubParser{err: context.DeadlineExceeded}
	p := New(WithParser(stub))

	_, err := p.ProcessSQL(context.Background(), "select 1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessor_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(WithLogger(logger)).ProcessSQL(context.Background(), "select title from books")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "processed select")
	assert.Contains(t, buf.String(), "from=books")
	assert.Contains(t, buf.String(), "fingerprint=")
}

func TestProcess_NilResult(t *testing.T) {
	_, err := New().Process(nil)
	assert.True(t, sqlerr.IsUnsupported(err))
}
