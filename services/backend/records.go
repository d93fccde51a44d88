package backendsvc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RecordQuery builds one request against the records API. Queries are
// single-use; methods mutate and return the same query for chaining.
type RecordQuery struct {
	client *Client
	table  string
	sel    string
	conds  url.Values
	order  []string
	limit  int
	single bool
}

// From starts a query against table. All record requests carry the current
// session's access token so the backend can enforce its row-level rules.
func (c *Client) From(table string) *RecordQuery {
	return &RecordQuery{
		client: c,
		table:  table,
		sel:    "*",
		conds:  url.Values{},
	}
}

func (q *RecordQuery) Select(cols ...string) *RecordQuery {
	if len(cols) > 0 {
		q.sel = strings.Join(cols, ",")
	}
	return q
}

// Eq filters on column equality.
func (q *RecordQuery) Eq(col, val string) *RecordQuery {
	q.conds.Add(col, "eq."+val)
	return q
}

// Order appends an ordering term.
func (q *RecordQuery) Order(col string, ascending bool) *RecordQuery {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, col+"."+dir)
	return q
}

func (q *RecordQuery) Limit(n int) *RecordQuery {
	q.limit = n
	return q
}

// Single makes Get decode a lone object instead of a list; the backend rejects
// the request unless exactly one row matches.
func (q *RecordQuery) Single() *RecordQuery {
	q.single = true
	return q
}

func (q *RecordQuery) params() url.Values {
	params := url.Values{"select": {q.sel}}
	for col, vals := range q.conds {
		for _, val := range vals {
			params.Add(col, val)
		}
	}
	if len(q.order) > 0 {
		params.Set("order", strings.Join(q.order, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	return params
}

// Get runs the query and decodes the rows (or lone object, see Single) into dest.
func (q *RecordQuery) Get(ctx context.Context, dest interface{}) error {
	req := apiRequest{
		method: http.MethodGet,
		path:   "/rest/v1/" + q.table,
		params: q.params(),
		authed: true,
	}
	if q.single {
		req.accept = "application/vnd.pgrst.object+json"
	}
	return q.client.do(ctx, req, dest)
}

// Insert creates record and decodes the stored representation into dest when
// non-nil.
func (q *RecordQuery) Insert(ctx context.Context, record, dest interface{}) error {
	req := apiRequest{
		method: http.MethodPost,
		path:   "/rest/v1/" + q.table,
		body:   record,
		authed: true,
	}
	if dest != nil {
		req.prefer = "return=representation"
	}
	return q.client.do(ctx, req, dest)
}

// Update patches the rows matching the query's filters.
func (q *RecordQuery) Update(ctx context.Context, changes, dest interface{}) error {
	req := apiRequest{
		method: http.MethodPatch,
		path:   "/rest/v1/" + q.table,
		params: q.params(),
		body:   changes,
		authed: true,
	}
	if dest != nil {
		req.prefer = "return=representation"
	}
	return q.client.do(ctx, req, dest)
}

// Delete removes the rows matching the query's filters.
func (q *RecordQuery) Delete(ctx context.Context) error {
	return q.client.do(ctx, apiRequest{
		method: http.MethodDelete,
		path:   "/rest/v1/" + q.table,
		params: q.params(),
		authed: true,
	}, nil)
}
