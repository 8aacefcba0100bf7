package postgres

import (
	"reflect"
	"sync"
)

// column is one db-tagged field, reached through embedded structs by index path.
type column struct {
	name  string
	index []int
}

var columnPlans sync.Map // reflect.Type -> []column

// columnsOf flattens the db-tagged fields of t, embedded structs first-come.
// Untagged fields and db:"-" are skipped. The plan is computed once per type.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnPlans.Load(t); ok {
		return cached.([]column)
	}
	var plan []column
	if t.Kind() == reflect.Struct {
		plan = collectColumns(t, nil)
	}
	columnPlans.Store(t, plan)
	return plan
}

func collectColumns(t reflect.Type, prefix []int) []column {
	var out []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, collectColumns(f.Type, path)...)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, column{name: tag, index: path})
	}
	return out
}

// ExtractDBColumns lists the column names of T in field order.
//
//	ExtractDBColumns[catalog.Supplier]()
//	// ["id", "tenant_id", "version", "created_at", "updated_at", "name", ...]
func ExtractDBColumns[T any]() []string {
	plan := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(plan))
	for i, c := range plan {
		names[i] = c.name
	}
	return names
}

// StructToMap maps the column names of v to its field values. It feeds
// squirrel SetMap for inserts and updates.
func StructToMap(v any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	plan := columnsOf(rv.Type())
	out := make(map[string]any, len(plan))
	for _, c := range plan {
		out[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return out
}
