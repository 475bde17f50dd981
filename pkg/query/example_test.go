package query_test

import (
	"fmt"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
	"github.com/nainya/recquery/pkg/keypath"
	"github.com/nainya/recquery/pkg/query"
	"github.com/nainya/recquery/pkg/value"
)

func ExampleEngine_Find() {
	people := dataset.FromRecords(
		value.Object(value.F("name", "John"), value.F("age", 30)),
		value.Object(value.F("name", "jane"), value.F("age", 25)),
		value.Object(value.F("name", "Bob"), value.F("age", 41)),
	)

	opts := query.NewQueryBuilder().
		WhereOp("age", condition.OpGreater, 26).
		OrderBy("name", query.Asc).
		Build()

	res, err := query.Default().Find(people, opts, query.SelectAll)
	if err != nil {
		panic(err)
	}
	res.Records.Range(func(k dataset.Key, rec value.Value) bool {
		fmt.Println(k, rec)
		return true
	})
	// Output:
	// 2 {"name": "Bob", "age": 41}
	// 0 {"name": "John", "age": 30}
}

func ExampleMerge() {
	defaults := query.Options{Where: []condition.Condition{condition.Equals("a", 1)}}
	caller := query.Options{Where: []condition.Condition{condition.Equals("a", 1), condition.Equals("b", 2)}, Limit: 5}

	merged := query.Merge(defaults, caller)
	fmt.Println(len(merged.Where), merged.Limit)
	// Output: 2 5
}

func Example_compare() {
	values := keypath.Extract(value.Object(value.F("tags", []string{"foo", "foobar"})), "tags")
	n, _ := condition.Compare(values[0].Children(), condition.OpFuzzy, value.String("bar"))
	fmt.Println(n)
	// Output: 1
}
