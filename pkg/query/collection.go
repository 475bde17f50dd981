// ABOUTME: Collection binds a dataset to an engine for instance-style queries
// ABOUTME: Exposes find, where and sort over the stored data

package query

import (
	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
)

// Collection holds a dataset and queries it with an engine. Queries never
// modify the stored dataset; SetData replaces it.
type Collection struct {
	engine *Engine
	data   *dataset.Dataset
}

// NewCollection binds data to engine. A nil engine uses Default.
func NewCollection(engine *Engine, data *dataset.Dataset) *Collection {
	if engine == nil {
		engine = Default()
	}
	if data == nil {
		data = dataset.New(0)
	}
	return &Collection{engine: engine, data: data}
}

// SetData replaces the stored dataset.
func (c *Collection) SetData(data *dataset.Dataset) {
	if data == nil {
		data = dataset.New(0)
	}
	c.data = data
}

// Data returns the stored dataset.
func (c *Collection) Data() *dataset.Dataset {
	return c.data
}

// Len returns the number of stored records.
func (c *Collection) Len() int {
	return c.data.Len()
}

// Find runs Engine.Find over the stored dataset.
func (c *Collection) Find(opts Options, sel Selector) (*Result, error) {
	return c.engine.Find(c.data, opts, sel)
}

// Where runs Engine.Where over the stored dataset.
func (c *Collection) Where(conds ...condition.Condition) (*dataset.Dataset, error) {
	return c.engine.Where(c.data, conds...)
}

// Sort runs Engine.Sort over the stored dataset.
func (c *Collection) Sort(keyPath string, order Order) *dataset.Dataset {
	return c.engine.Sort(c.data, keyPath, order)
}
