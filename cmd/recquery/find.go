package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
	"github.com/nainya/recquery/pkg/query"
	"github.com/nainya/recquery/pkg/value"
)

type findFlags struct {
	file        string
	where       string
	sortKey     string
	sortOrder   string
	limit       int
	offset      int
	selector    string
	reindex     bool
	splitValues string
	indent      bool
}

func newFindCmd(root *rootFlags) *cobra.Command {
	f := &findFlags{}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Query a JSON or JSON Lines file",
		Example: `  recquery find --file people.json --where '[["age", ">", 26]]' --sort-key name
  recquery find --file events.jsonl.zst --where '[["tags", "~", "error"]]' --select last`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, root, f)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Dataset file (.json, .jsonl, optionally .gz, .zst or .lz4)")
	cmd.Flags().StringVarP(&f.where, "where", "w", "", "JSON list of conditions")
	cmd.Flags().StringVar(&f.sortKey, "sort-key", "", "Key path to sort by")
	cmd.Flags().StringVar(&f.sortOrder, "sort-order", "ASC", "ASC or DESC")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum records to return (0 means unlimited)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Records to skip")
	cmd.Flags().StringVar(&f.selector, "select", "all", "all, first, last or a record key")
	cmd.Flags().BoolVar(&f.reindex, "reindex", false, "Renumber result keys from 0")
	cmd.Flags().StringVar(&f.splitValues, "split-values", "", "Split string targets on this separator into alternatives")
	cmd.Flags().BoolVar(&f.indent, "indent", false, "Indent JSON output")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runFind(cmd *cobra.Command, root *rootFlags, f *findFlags) error {
	cfg, log, err := root.load(cmd)
	if err != nil {
		return err
	}
	qc, err := cfg.QueryConfig()
	if err != nil {
		return err
	}
	engine, err := query.NewEngine(qc)
	if err != nil {
		return err
	}

	start := time.Now()
	ds, err := dataset.Load(f.file)
	if err != nil {
		return err
	}
	log.LogDatasetLoaded(f.file, f.file, ds.Len(), time.Since(start))

	opts, err := f.options(cmd)
	if err != nil {
		return err
	}

	start = time.Now()
	res, err := engine.Find(ds, opts, query.ParseSelector(f.selector))
	if err != nil {
		log.LogQuery("find", time.Since(start), ds.Len(), 0, err)
		return err
	}
	for _, d := range res.Diagnostics {
		log.LogDiagnostic("find", d)
	}
	if f.reindex && res.Records != nil {
		res.Records = res.Records.Reindex()
	}
	log.LogQuery("find", time.Since(start), ds.Len(), res.Records.Len(), nil)

	return writeJSON(cmd, res.Value(), f.indent)
}

// options builds query options from the flags that were set, so unset
// flags fall through to the configured defaults.
func (f *findFlags) options(cmd *cobra.Command) (query.Options, error) {
	opts := query.DefaultOptions()

	if f.where != "" {
		raw, err := value.ParseJSON([]byte(f.where))
		if err != nil {
			return opts, fmt.Errorf("--where: %w", err)
		}
		items, ok := raw.AsSequence()
		if !ok {
			return opts, fmt.Errorf("--where must be a JSON list of conditions")
		}
		for _, item := range items {
			c := condition.FromValue(item)
			if f.splitValues != "" {
				c = condition.ExpandTargets(c, f.splitValues)
			}
			opts = opts.WithWhere(c)
		}
	}

	if cmd.Flags().Changed("limit") {
		if f.limit < 0 {
			return opts, fmt.Errorf("%w: --limit must not be negative", query.ErrInvalidOptions)
		}
		opts = opts.WithLimit(f.limit)
	}
	if cmd.Flags().Changed("offset") {
		if f.offset < 0 {
			return opts, fmt.Errorf("%w: --offset must not be negative", query.ErrInvalidOptions)
		}
		opts = opts.WithOffset(f.offset)
	}
	if cmd.Flags().Changed("sort-key") {
		opts = opts.WithSort(f.sortKey, query.ParseOrder(f.sortOrder))
	} else if cmd.Flags().Changed("sort-order") {
		opts = opts.WithSortOrder(query.ParseOrder(f.sortOrder))
	}
	return opts, nil
}

type extractFlags struct {
	file   string
	key    string
	path   string
	indent bool
}

func newExtractCmd(root *rootFlags) *cobra.Command {
	f := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Resolve a key path against one record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load(cmd)
			if err != nil {
				return err
			}
			qc, err := cfg.QueryConfig()
			if err != nil {
				return err
			}
			engine, err := query.NewEngine(qc)
			if err != nil {
				return err
			}

			ds, err := dataset.Load(f.file)
			if err != nil {
				return err
			}
			rec, ok := ds.Get(dataset.Name(f.key))
			if !ok {
				return fmt.Errorf("record %q not found", f.key)
			}
			return writeJSON(cmd, value.Sequence(engine.Extract(rec, f.path)...), f.indent)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Dataset file")
	cmd.Flags().StringVarP(&f.key, "key", "k", "0", "Record key")
	cmd.Flags().StringVarP(&f.path, "path", "p", "", "Key path")
	cmd.Flags().BoolVar(&f.indent, "indent", false, "Indent JSON output")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func writeJSON(cmd *cobra.Command, v value.Value, indent bool) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	if indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
