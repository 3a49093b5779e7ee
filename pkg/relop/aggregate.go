package relop

import (
	"fmt"
	"strings"

	"github.com/toileto/visage/pkg/table"
)

// AggFunc identifies an aggregate function.
type AggFunc int

const (
	AggSum AggFunc = iota
	AggCount
	AggAvg
	AggMin
	AggMax
)

// String returns the SQL name of the function.
func (f AggFunc) String() string {
	switch f {
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// ParseAggFunc converts a string to an AggFunc.
func ParseAggFunc(s string) (AggFunc, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUM":
		return AggSum, nil
	case "COUNT":
		return AggCount, nil
	case "AVG":
		return AggAvg, nil
	case "MIN":
		return AggMin, nil
	case "MAX":
		return AggMax, nil
	default:
		return 0, fmt.Errorf("unknown aggregate function: %s", s)
	}
}

// AggSpec describes one aggregate output column. Column is the source column
// ("*" is allowed for COUNT), As the output name.
type AggSpec struct {
	Func   AggFunc
	Column string
	As     string
}

// aggState accumulates one aggregate over one group.
type aggState struct {
	count    int64
	sumInt   int64
	sumFloat float64
	isFloat  bool
	min      table.Value
	max      table.Value
	hasValue bool
}

// groupState holds the grouping-key values and per-spec accumulators for one
// distinct group.
type groupState struct {
	key  []table.Value
	aggs []aggState
}

// Aggregate groups t by the given columns and computes the aggregate specs,
// producing one row per distinct key combination in first-seen order. With no
// grouping columns the whole input forms a single group.
func Aggregate(t *table.Table, groupBy []string, specs []AggSpec) (*table.Table, error) {
	schema := t.Schema()

	groupIdx := make([]int, len(groupBy))
	for i, name := range groupBy {
		idx := schema.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("unknown column in group by: %s", name)
		}
		groupIdx[i] = idx
	}

	specIdx := make([]int, len(specs))
	for i, spec := range specs {
		if spec.Column == "*" {
			if spec.Func != AggCount {
				return nil, fmt.Errorf("%s(*) is not supported, only COUNT(*)", spec.Func)
			}
			specIdx[i] = -1
			continue
		}
		idx := schema.ColumnIndex(spec.Column)
		if idx < 0 {
			return nil, fmt.Errorf("unknown column in aggregate %s: %s", spec.Func, spec.Column)
		}
		specIdx[i] = idx
	}

	groups := make(map[string]*groupState)
	var order []string // first-seen group order for stable output

	for rowNum, row := range t.Rows() {
		keyStr := ""
		var key []table.Value
		if len(groupIdx) > 0 {
			key = make([]table.Value, len(groupIdx))
			for i, idx := range groupIdx {
				key[i] = row[idx]
			}
			keyStr = groupKeyString(key)
		}

		grp, ok := groups[keyStr]
		if !ok {
			grp = &groupState{key: key, aggs: make([]aggState, len(specs))}
			groups[keyStr] = grp
			order = append(order, keyStr)
		}

		for i, spec := range specs {
			if err := grp.aggs[i].update(spec, row, specIdx[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
		}
	}

	columns := append([]string(nil), groupBy...)
	for _, spec := range specs {
		columns = append(columns, spec.As)
	}
	outSchema, err := table.NewSchema(columns)
	if err != nil {
		return nil, err
	}

	out := table.New(outSchema)
	for _, keyStr := range order {
		grp := groups[keyStr]
		row := make([]table.Value, 0, outSchema.Len())
		row = append(row, grp.key...)
		for i, spec := range specs {
			row = append(row, grp.aggs[i].result(spec.Func))
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *aggState) update(spec AggSpec, row []table.Value, idx int) error {
	if idx < 0 { // COUNT(*)
		a.count++
		return nil
	}
	val := row[idx]
	if val.IsNull() {
		return nil
	}

	switch spec.Func {
	case AggCount:
		a.count++

	case AggSum, AggAvg:
		if !val.IsNumeric() {
			return fmt.Errorf("%w: %s over %s column %s",
				table.ErrTypeMismatch, spec.Func, val.Kind, spec.Column)
		}
		a.count++
		if val.Kind == table.KindFloat {
			a.isFloat = true
		}
		a.sumInt += val.Int
		a.sumFloat += val.AsFloat()
		a.hasValue = true

	case AggMin:
		if less, ordered := val.Less(a.min); !a.hasValue || (ordered && less) {
			a.min = val
		}
		a.hasValue = true

	case AggMax:
		if less, ordered := a.max.Less(val); !a.hasValue || (ordered && less) {
			a.max = val
		}
		a.hasValue = true
	}
	return nil
}

func (a *aggState) result(fn AggFunc) table.Value {
	switch fn {
	case AggCount:
		return table.NewInt(a.count)
	case AggSum:
		if !a.hasValue {
			return table.Null()
		}
		if a.isFloat {
			return table.NewFloat(a.sumFloat)
		}
		return table.NewInt(a.sumInt)
	case AggAvg:
		if !a.hasValue || a.count == 0 {
			return table.Null()
		}
		return table.NewFloat(a.sumFloat / float64(a.count))
	case AggMin:
		if !a.hasValue {
			return table.Null()
		}
		return a.min
	case AggMax:
		if !a.hasValue {
			return table.Null()
		}
		return a.max
	default:
		return table.Null()
	}
}

// groupKeyString serializes grouping-key values into a map key. Kind prefixes
// keep values of different kinds from colliding.
func groupKeyString(key []table.Value) string {
	var sb strings.Builder
	for _, v := range key {
		sb.WriteString(v.Kind.String())
		sb.WriteByte(':')
		sb.WriteString(v.String())
		sb.WriteByte('\x00')
	}
	return sb.String()
}
