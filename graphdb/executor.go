package graphdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Executor runs a parsed Query's pipeline (MATCH -> WHERE -> CREATE ->
// SET -> DELETE -> WITH/RETURN -> ORDER BY -> SKIP -> LIMIT) against a
// Store, generalized from the teacher's executor.go clause-dispatch
// loop (executeCreate/executeMatch/executeWhere/executeSet/
// executeDelete/executeReturn) to the full pattern/expression grammar.
type Executor struct {
	store *Store
	log   *logrus.Entry
}

// NewExecutor builds an Executor over a Store.
func NewExecutor(store *Store) *Executor {
	return &Executor{store: store, log: logrus.WithField("component", "Executor")}
}

// hopResult is one candidate traversal outcome: the bound value for
// the relationship variable (a single edge map, or a list of edge
// maps for a variable-length hop) and the node id it lands on.
type hopResult struct {
	edgeValue Value
	targetID  int64
}

func cloneBinding(row Binding) Binding {
	out := make(Binding, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Execute runs one query end to end and returns its Result.
func (ex *Executor) Execute(q *Query, params map[string]Value) (*Result, error) {
	rows := []Binding{make(Binding)}
	var err error

	if q.Match != nil {
		rows, err = ex.runMatch(q.Match, rows, params)
		if err != nil {
			return nil, err
		}
	}
	if q.Where != nil {
		rows, err = ex.filterRows(q.Where.Condition, rows, params)
		if err != nil {
			return nil, err
		}
	}
	if q.Create != nil {
		rows, err = ex.runCreate(q.Create, rows, params)
		if err != nil {
			return nil, err
		}
	}
	if q.Set != nil {
		for _, row := range rows {
			if err := ex.applySet(q.Set, row, params); err != nil {
				return nil, err
			}
		}
	}
	if q.Delete != nil {
		for _, row := range rows {
			if err := ex.applyDelete(q.Delete, row); err != nil {
				return nil, err
			}
		}
	}

	if q.With != nil {
		_, rows, err = ex.project(q.With.Items, q.With.Distinct, rows, params)
		if err != nil {
			return nil, err
		}
		if q.With.Where != nil {
			rows, err = ex.filterRows(q.With.Where, rows, params)
			if err != nil {
				return nil, err
			}
		}
		if len(q.With.OrderBy) > 0 {
			withColumns := make([]string, len(q.With.Items))
			for i, item := range q.With.Items {
				if item.Alias != "" {
					withColumns[i] = item.Alias
				} else {
					withColumns[i] = exprDisplayName(item.Expr)
				}
			}
			terms := resolveOrderTermsAgainstColumns(q.With.OrderBy, withColumns)
			if err := sortBindingsByOrderTerms(rows, terms); err != nil {
				return nil, err
			}
		}
		rows = applySkipLimit(rows, q.With.Skip, q.With.Limit)
	}

	var columns []string
	var outRows []Binding
	if q.Return != nil {
		columns, outRows, err = ex.project(q.Return.Items, q.Return.Distinct, rows, params)
		if err != nil {
			return nil, err
		}
	} else {
		outRows = rows
	}

	if len(q.OrderBy) > 0 {
		terms := q.OrderBy
		if q.Return != nil {
			terms = resolveOrderTermsAgainstColumns(q.OrderBy, columns)
		}
		if err := sortBindingsByOrderTerms(outRows, terms); err != nil {
			return nil, err
		}
	}
	outRows = applySkipLimit(outRows, q.Skip, q.Limit)

	return NewResult(columns, outRows), nil
}

// resolveOrderTermsAgainstColumns rewrites ORDER BY terms that name a
// projected output column (e.g. `ORDER BY n.city` after `RETURN
// n.city`) into a plain variable reference against that column, since
// post-projection rows are keyed by column name rather than by the
// original pattern variables the expression was written against.
func resolveOrderTermsAgainstColumns(terms []OrderTerm, columns []string) []OrderTerm {
	colSet := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		colSet[c] = struct{}{}
	}
	out := make([]OrderTerm, len(terms))
	for i, t := range terms {
		name := exprDisplayName(t.Expr)
		if _, ok := colSet[name]; ok {
			out[i] = OrderTerm{Expr: VariableExpr{Name: name}, Descending: t.Descending}
		} else {
			out[i] = t
		}
	}
	return out
}

func applySkipLimit(rows []Binding, skip, limit *int64) []Binding {
	start := 0
	if skip != nil && *skip > 0 {
		start = int(*skip)
		if start > len(rows) {
			start = len(rows)
		}
	}
	rows = rows[start:]
	if limit != nil && int(*limit) < len(rows) {
		if *limit < 0 {
			return rows[:0]
		}
		rows = rows[:int(*limit)]
	}
	return rows
}

func (ex *Executor) filterRows(cond Expr, rows []Binding, params map[string]Value) ([]Binding, error) {
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		v, err := Eval(cond, Env{Row: row, Params: params})
		if err != nil {
			return nil, err
		}
		if !v.IsNull() && v.Truthy() {
			out = append(out, row)
		}
	}
	return out, nil
}

// --- MATCH ---

func (ex *Executor) runMatch(clause *MatchClause, rows []Binding, params map[string]Value) ([]Binding, error) {
	for _, pattern := range clause.Patterns {
		var err error
		rows, err = ex.matchPattern(pattern, rows, params)
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (ex *Executor) matchPattern(pattern PathPattern, rows []Binding, params map[string]Value) ([]Binding, error) {
	var out []Binding
	for _, row := range rows {
		firstCandidates, err := ex.candidateNodes(pattern.Nodes[0], row, params)
		if err != nil {
			return nil, err
		}
		for _, n0 := range firstCandidates {
			r0 := cloneBinding(row)
			bindNodeVar(r0, pattern.Nodes[0], n0)
			chains, err := ex.extendChain(pattern, r0, n0.ID, 0, params)
			if err != nil {
				return nil, err
			}
			out = append(out, chains...)
		}
	}
	return out, nil
}

func (ex *Executor) extendChain(pattern PathPattern, row Binding, currentID int64, relIdx int, params map[string]Value) ([]Binding, error) {
	if relIdx == len(pattern.Rels) {
		return []Binding{row}, nil
	}
	rel := pattern.Rels[relIdx]
	nextNP := pattern.Nodes[relIdx+1]

	hops, err := ex.matchRelStep(currentID, rel, row, params)
	if err != nil {
		return nil, err
	}

	var out []Binding
	for _, h := range hops {
		targetNode, err := ex.store.GetNode(h.targetID)
		if err != nil {
			continue
		}
		if !ex.nodeMatchesPattern(targetNode, nextNP, row, params) {
			continue
		}
		nr := cloneBinding(row)
		if rel.Variable != "" {
			nr[rel.Variable] = h.edgeValue
		}
		bindNodeVar(nr, nextNP, targetNode)
		sub, err := ex.extendChain(pattern, nr, targetNode.ID, relIdx+1, params)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (ex *Executor) candidateNodes(np NodePattern, row Binding, params map[string]Value) ([]Node, error) {
	if np.Variable != "" {
		if v, ok := row[np.Variable]; ok {
			if v.Kind != KindMap {
				return nil, fmt.Errorf("%w: %s is not a node", ErrArgumentError, np.Variable)
			}
			id := v.Map["__id"].Int
			n, err := ex.store.GetNode(id)
			if err != nil {
				return nil, nil
			}
			if !ex.nodeMatchesPattern(n, np, row, params) {
				return nil, nil
			}
			return []Node{n}, nil
		}
	}

	var candidates []Node
	if len(np.Labels) > 0 {
		candidates = ex.store.NodesByLabel(np.Labels[0])
	} else {
		candidates = ex.store.AllNodes()
	}
	out := make([]Node, 0, len(candidates))
	for _, n := range candidates {
		if ex.nodeMatchesPattern(n, np, row, params) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (ex *Executor) nodeMatchesPattern(n Node, np NodePattern, row Binding, params map[string]Value) bool {
	for _, l := range np.Labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	for k, expr := range np.Properties {
		val, err := Eval(expr, Env{Row: row, Params: params})
		if err != nil {
			return false
		}
		pv, ok := n.Properties[k]
		if !ok || !pv.Equal(val) {
			return false
		}
	}
	return true
}

func bindNodeVar(row Binding, np NodePattern, n Node) {
	if np.Variable != "" {
		row[np.Variable] = nodeToValue(n)
	}
}

// matchRelStep enumerates every valid traversal from sourceID across
// one relationship pattern, fixed-length or variable-length.
func (ex *Executor) matchRelStep(sourceID int64, rel RelPattern, row Binding, params map[string]Value) ([]hopResult, error) {
	if rel.VarLength == nil {
		return ex.matchSingleHop(sourceID, rel, row, params)
	}
	return ex.matchVarLengthHop(sourceID, rel, row, params)
}

func (ex *Executor) matchSingleHop(sourceID int64, rel RelPattern, row Binding, params map[string]Value) ([]hopResult, error) {
	type candidate struct {
		edge   Edge
		target int64
	}
	var candidates []candidate
	if rel.Direction != DirLeft {
		for _, eid := range ex.store.OutEdges(sourceID) {
			e, err := ex.store.GetEdge(eid)
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{e, e.Target})
		}
	}
	if rel.Direction != DirRight {
		for _, eid := range ex.store.InEdges(sourceID) {
			e, err := ex.store.GetEdge(eid)
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{e, e.Source})
		}
	}

	var out []hopResult
	for _, c := range candidates {
		if !ex.edgeMatchesPattern(c.edge, rel, row, params) {
			continue
		}
		out = append(out, hopResult{edgeValue: edgeToValue(c.edge), targetID: c.target})
	}
	return out, nil
}

func (ex *Executor) edgeMatchesPattern(e Edge, rel RelPattern, row Binding, params map[string]Value) bool {
	if len(rel.Types) > 0 {
		found := false
		for _, t := range rel.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for k, expr := range rel.Properties {
		val, err := Eval(expr, Env{Row: row, Params: params})
		if err != nil {
			return false
		}
		pv, ok := e.Properties[k]
		if !ok || !pv.Equal(val) {
			return false
		}
	}
	return true
}

// matchVarLengthHop performs a no-edge-reuse BFS bounded by
// maxVarLengthHops, collecting every path whose length falls within
// [Min, Max] as one hopResult carrying the full edge list.
func (ex *Executor) matchVarLengthHop(sourceID int64, rel RelPattern, row Binding, params map[string]Value) ([]hopResult, error) {
	vl := rel.VarLength
	var results []hopResult

	if vl.Min == 0 {
		results = append(results, hopResult{edgeValue: ListValue(nil), targetID: sourceID})
	}

	type pathState struct {
		target int64
		edges  []int64
	}
	frontier := []pathState{{target: sourceID, edges: nil}}

	for depth := 1; depth <= vl.Max && depth <= maxVarLengthHops; depth++ {
		var next []pathState
		for _, ps := range frontier {
			hops, err := ex.matchSingleHop(ps.target, RelPattern{Types: rel.Types, Properties: rel.Properties, Direction: rel.Direction}, row, params)
			if err != nil {
				return nil, err
			}
			for _, h := range hops {
				eid := h.edgeValue.Map["__id"].Int
				if containsEdgeID(ps.edges, eid) {
					continue
				}
				newEdges := append(append([]int64{}, ps.edges...), eid)
				if depth >= vl.Min {
					results = append(results, hopResult{edgeValue: edgesListValue(ex.store, newEdges), targetID: h.targetID})
				}
				next = append(next, pathState{target: h.targetID, edges: newEdges})
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return results, nil
}

func containsEdgeID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func edgesListValue(store *Store, ids []int64) Value {
	vals := make([]Value, 0, len(ids))
	for _, id := range ids {
		e, err := store.GetEdge(id)
		if err != nil {
			continue
		}
		vals = append(vals, edgeToValue(e))
	}
	return ListValue(vals)
}

// --- CREATE ---

func (ex *Executor) runCreate(clause *CreateClause, rows []Binding, params map[string]Value) ([]Binding, error) {
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		for _, pattern := range clause.Patterns {
			if err := ex.executeCreatePattern(pattern, row, params); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// executeCreatePattern creates the nodes/edges of one pattern in
// place, mutating row with every new or merged variable binding.
// Already-bound variables are merged, not overwritten (spec's CREATE
// semantics open question): re-specifying a bound node variable adds
// the pattern's labels/properties to the existing node rather than
// creating a duplicate.
func (ex *Executor) executeCreatePattern(pattern PathPattern, row Binding, params map[string]Value) error {
	nodeIDs := make([]int64, len(pattern.Nodes))
	for i, np := range pattern.Nodes {
		if np.Variable != "" {
			if existing, ok := row[np.Variable]; ok && existing.Kind == KindMap {
				id := existing.Map["__id"].Int
				for _, l := range np.Labels {
					if err := ex.store.AddNodeLabel(id, l); err != nil {
						return err
					}
				}
				props, err := evalPropertyMap(np.Properties, row, params)
				if err != nil {
					return err
				}
				for k, v := range props {
					if err := ex.store.SetNodeProperty(id, k, v); err != nil {
						return err
					}
				}
				n, err := ex.store.GetNode(id)
				if err != nil {
					return err
				}
				row[np.Variable] = nodeToValue(n)
				nodeIDs[i] = id
				continue
			}
		}
		props, err := evalPropertyMap(np.Properties, row, params)
		if err != nil {
			return err
		}
		id, err := ex.store.CreateNode(np.Labels, props, nil)
		if err != nil {
			return err
		}
		if np.Variable != "" {
			n, _ := ex.store.GetNode(id)
			row[np.Variable] = nodeToValue(n)
		}
		nodeIDs[i] = id
	}

	for i, rel := range pattern.Rels {
		srcID, dstID := nodeIDs[i], nodeIDs[i+1]
		if rel.Direction == DirLeft {
			srcID, dstID = dstID, srcID
		}
		typ := ""
		if len(rel.Types) > 0 {
			typ = rel.Types[0]
		}
		props, err := evalPropertyMap(rel.Properties, row, params)
		if err != nil {
			return err
		}
		edgeID, err := ex.store.CreateEdge(srcID, dstID, typ, props)
		if err != nil {
			return err
		}
		if rel.Variable != "" {
			e, _ := ex.store.GetEdge(edgeID)
			row[rel.Variable] = edgeToValue(e)
		}
	}
	return nil
}

func evalPropertyMap(props map[string]Expr, row Binding, params map[string]Value) (map[string]Value, error) {
	out := make(map[string]Value, len(props))
	for k, expr := range props {
		v, err := Eval(expr, Env{Row: row, Params: params})
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// --- SET / DELETE ---

func (ex *Executor) applySet(clause *SetClause, row Binding, params map[string]Value) error {
	for _, item := range clause.Assignments {
		base, ok := row[item.Variable]
		if !ok || base.Kind != KindMap {
			return fmt.Errorf("%w: %s", ErrUnboundVariable, item.Variable)
		}
		id := base.Map["__id"].Int
		_, isEdge := base.Map["__type"]

		if item.Label != "" {
			if isEdge {
				return fmt.Errorf("%w: cannot SET a label on a relationship", ErrArgumentError)
			}
			if err := ex.store.AddNodeLabel(id, item.Label); err != nil {
				return err
			}
			n, err := ex.store.GetNode(id)
			if err != nil {
				return err
			}
			row[item.Variable] = nodeToValue(n)
			continue
		}

		val, err := Eval(item.Value, Env{Row: row, Params: params})
		if err != nil {
			return err
		}
		if isEdge {
			if err := ex.store.SetEdgeProperty(id, item.Key, val); err != nil {
				return err
			}
			e, err := ex.store.GetEdge(id)
			if err != nil {
				return err
			}
			row[item.Variable] = edgeToValue(e)
		} else {
			if err := ex.store.SetNodeProperty(id, item.Key, val); err != nil {
				return err
			}
			n, err := ex.store.GetNode(id)
			if err != nil {
				return err
			}
			row[item.Variable] = nodeToValue(n)
		}
	}
	return nil
}

func (ex *Executor) applyDelete(clause *DeleteClause, row Binding) error {
	for _, varName := range clause.Variables {
		base, ok := row[varName]
		if !ok || base.Kind != KindMap {
			continue
		}
		id := base.Map["__id"].Int
		if _, isEdge := base.Map["__type"]; isEdge {
			if err := ex.store.DeleteEdge(id); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			continue
		}
		if err := ex.store.DeleteNode(id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// --- WITH / RETURN projection, grouping, distinct ---

func (ex *Executor) project(items []ReturnItem, distinct bool, rows []Binding, params map[string]Value) ([]string, []Binding, error) {
	columns := make([]string, len(items))
	for i, item := range items {
		if item.Alias != "" {
			columns[i] = item.Alias
		} else {
			columns[i] = exprDisplayName(item.Expr)
		}
	}

	hasAgg := false
	for _, item := range items {
		if containsAggregate(item.Expr) {
			hasAgg = true
			break
		}
	}

	var outRows []Binding
	var err error
	if hasAgg {
		outRows, err = ex.projectGrouped(items, columns, rows, params)
	} else {
		outRows, err = ex.projectFlat(items, columns, rows, params)
	}
	if err != nil {
		return nil, nil, err
	}

	if distinct {
		outRows = dedupeRows(columns, outRows)
	}
	return columns, outRows, nil
}

func (ex *Executor) projectFlat(items []ReturnItem, columns []string, rows []Binding, params map[string]Value) ([]Binding, error) {
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		outRow := make(Binding, len(items))
		for i, item := range items {
			v, err := Eval(item.Expr, Env{Row: row, Params: params})
			if err != nil {
				return nil, err
			}
			outRow[columns[i]] = v
		}
		out = append(out, outRow)
	}
	return out, nil
}

func (ex *Executor) projectGrouped(items []ReturnItem, columns []string, rows []Binding, params map[string]Value) ([]Binding, error) {
	type group struct {
		key  string
		rows []Binding
	}
	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, row := range rows {
		var keyParts []string
		for _, item := range items {
			if containsAggregate(item.Expr) {
				continue
			}
			v, err := Eval(item.Expr, Env{Row: row, Params: params})
			if err != nil {
				return nil, err
			}
			keyParts = append(keyParts, v.String())
		}
		key := strings.Join(keyParts, "\x1f")
		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}

	if len(rows) == 0 {
		// A bare aggregate over zero input rows still yields one row
		// (e.g. COUNT(*) = 0), per standard aggregate semantics.
		groups[""] = &group{}
		order = append(order, "")
	}

	out := make([]Binding, 0, len(order))
	for _, key := range order {
		g := groups[key]
		rep := Binding{}
		if len(g.rows) > 0 {
			rep = g.rows[0]
		}
		outRow := make(Binding, len(items))
		for i, item := range items {
			if containsAggregate(item.Expr) {
				v, err := evalAggregateExpr(item.Expr, g.rows, params)
				if err != nil {
					return nil, err
				}
				outRow[columns[i]] = v
			} else {
				v, err := Eval(item.Expr, Env{Row: rep, Params: params})
				if err != nil {
					return nil, err
				}
				outRow[columns[i]] = v
			}
		}
		out = append(out, outRow)
	}
	return out, nil
}

// evalAggregateExpr evaluates a projection item that is itself one
// aggregate call over a group of rows. An aggregate nested inside a
// larger expression (e.g. `COUNT(n) + 1`) is rejected with
// ErrArgumentError.
func evalAggregateExpr(e Expr, groupRows []Binding, params map[string]Value) (Value, error) {
	fn, ok := e.(FunctionCallExpr)
	if !ok {
		return Null, fmt.Errorf("%w: aggregate expression must be a direct function call", ErrArgumentError)
	}
	switch fn.Name {
	case "COUNT":
		return evalCount(fn, groupRows, params)
	case "SUM", "AVG", "MIN", "MAX":
		return evalNumericAggregate(fn, groupRows, params)
	case "COLLECT":
		return evalCollect(fn, groupRows, params)
	default:
		return Null, fmt.Errorf("%w: %s", ErrUnknownFunction, fn.Name)
	}
}

func evalCount(fn FunctionCallExpr, rows []Binding, params map[string]Value) (Value, error) {
	if len(fn.Args) == 1 {
		if v, ok := fn.Args[0].(VariableExpr); ok && v.Name == "*" {
			return IntValue(int64(len(rows))), nil
		}
	}
	seen := make(map[string]struct{})
	count := int64(0)
	for _, row := range rows {
		v, err := Eval(fn.Args[0], Env{Row: row, Params: params})
		if err != nil {
			return Null, err
		}
		if v.IsNull() {
			continue
		}
		if fn.Distinct {
			key := v.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		count++
	}
	return IntValue(count), nil
}

func evalNumericAggregate(fn FunctionCallExpr, rows []Binding, params map[string]Value) (Value, error) {
	var values []Value
	seen := make(map[string]struct{})
	for _, row := range rows {
		v, err := Eval(fn.Args[0], Env{Row: row, Params: params})
		if err != nil {
			return Null, err
		}
		if v.IsNull() {
			continue
		}
		if fn.Distinct {
			key := v.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Null, nil
	}

	switch fn.Name {
	case "MIN":
		best := values[0]
		for _, v := range values[1:] {
			if v.Compare(best) < 0 {
				best = v
			}
		}
		return best, nil
	case "MAX":
		best := values[0]
		for _, v := range values[1:] {
			if v.Compare(best) > 0 {
				best = v
			}
		}
		return best, nil
	}

	allInt := true
	var sumInt int64
	var sumFloat float64
	for _, v := range values {
		if !v.isNumeric() {
			return Null, fmt.Errorf("%w: %s requires numeric values", ErrArgumentError, fn.Name)
		}
		if v.Kind != KindInt {
			allInt = false
		}
		sumFloat += v.asFloat()
		if v.Kind == KindInt {
			sumInt += v.Int
		}
	}
	if fn.Name == "SUM" {
		if allInt {
			return IntValue(sumInt), nil
		}
		return FloatValue(sumFloat), nil
	}
	return FloatValue(sumFloat / float64(len(values))), nil
}

func evalCollect(fn FunctionCallExpr, rows []Binding, params map[string]Value) (Value, error) {
	var out []Value
	seen := make(map[string]struct{})
	for _, row := range rows {
		v, err := Eval(fn.Args[0], Env{Row: row, Params: params})
		if err != nil {
			return Null, err
		}
		if v.IsNull() {
			continue
		}
		if fn.Distinct {
			key := v.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, v)
	}
	return ListValue(out), nil
}

func dedupeRows(columns []string, rows []Binding) []Binding {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = row[c].String()
		}
		key := strings.Join(parts, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

// exprDisplayName builds the default column name for an unaliased
// projection item, mirroring how Cypher renders `n.name`, `count(n)`,
// and similar expressions as column headers.
func exprDisplayName(e Expr) string {
	switch n := e.(type) {
	case VariableExpr:
		return n.Name
	case PropertyExpr:
		return n.Variable + "." + n.Key
	case LiteralExpr:
		return n.Value.String()
	case FunctionCallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprDisplayName(a)
		}
		prefix := ""
		if n.Distinct {
			prefix = "DISTINCT "
		}
		return strings.ToLower(n.Name) + "(" + prefix + strings.Join(args, ", ") + ")"
	case UnaryExpr:
		return n.Op + exprDisplayName(n.Operand)
	case BinaryExpr:
		return exprDisplayName(n.Left) + " " + n.Op + " " + exprDisplayName(n.Right)
	default:
		return "expr"
	}
}
