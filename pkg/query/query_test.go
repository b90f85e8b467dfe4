package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/larder/pkg/query"
)

func projection() *query.ProjectionMap {
	return query.NewProjectionMap("nutrition_log", "n").
		Project("id", "id").
		Project("user_id", "user_id").
		Project("calories", "calories").
		Project("logged_at", "logged_at")
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single", "calories", []query.SortField{{Field: "calories"}}},
		{"descending", "-logged_at", []query.SortField{{Field: "logged_at", Descending: true}}},
		{"mixed with spaces", " calories , -id ,", []query.SortField{
			{Field: "calories"},
			{Field: "id", Descending: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildPage(t *testing.T) {
	b := query.NewBuilder(projection(), query.SortField{Field: "logged_at", Descending: true}).
		WhereEquals("user_id", int64(7))

	sql, args, err := b.BuildPage(3, 20)
	if err != nil {
		t.Fatalf("BuildPage() error = %v", err)
	}

	want := "SELECT n.id, n.user_id, n.calories, n.logged_at FROM nutrition_log n WHERE n.user_id = $1 ORDER BY n.logged_at DESC LIMIT 20 OFFSET 40"
	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Errorf("args: got %v", args)
	}
}

func TestOrderByIgnoresUnknownFields(t *testing.T) {
	b := query.NewBuilder(projection(), query.SortField{Field: "id"}).
		OrderByFields(query.ParseSortFields("calories;DROP TABLE users,-calories"))

	sql, _, err := b.BuildPage(1, 10)
	if err != nil {
		t.Fatalf("BuildPage() error = %v", err)
	}
	want := "SELECT n.id, n.user_id, n.calories, n.logged_at FROM nutrition_log n ORDER BY n.calories DESC LIMIT 10 OFFSET 0"
	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}

	b = query.NewBuilder(projection(), query.SortField{Field: "id"}).
		OrderByFields(query.ParseSortFields("nope"))
	sql, _, _ = b.BuildPage(1, 10)
	if want := "SELECT n.id, n.user_id, n.calories, n.logged_at FROM nutrition_log n ORDER BY n.id ASC LIMIT 10 OFFSET 0"; sql != want {
		t.Errorf("unknown sort should fall back to default:\n got %s\nwant %s", sql, want)
	}
}

func TestBuildCount(t *testing.T) {
	sql, args, err := query.NewBuilder(projection()).WhereEquals("user_id", 3).BuildCount()
	if err != nil {
		t.Fatalf("BuildCount() error = %v", err)
	}
	if sql != "SELECT COUNT(*) FROM nutrition_log n WHERE n.user_id = $1" {
		t.Errorf("sql: got %s", sql)
	}
	if len(args) != 1 {
		t.Errorf("args: got %v", args)
	}
}

func TestUnknownConditionField(t *testing.T) {
	if _, _, err := query.NewBuilder(projection()).WhereEquals("password", "x").BuildCount(); err == nil {
		t.Error("expected error for unprojected field")
	}
}
