package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGitHub serves the subset of the REST and GraphQL APIs the collector uses
type fakeGitHub struct {
	mu sync.Mutex

	login       string
	scopes      *string
	user        map[string]interface{}
	connections map[string][]map[string]interface{}

	// failures holds status codes to return, in order, for a connection field
	failures map[string][]int
	// graphqlErrors holds GraphQL error messages to return once per field
	graphqlErrors map[string]string
	unauthorized  bool
	// stalled fields always report another page behind the same cursor
	stalled map[string]bool
	// delay stalls every GraphQL response
	delay time.Duration

	queries   []string
	variables []map[string]interface{}
}

func newFakeGitHub(login string) *fakeGitHub {
	scopes := "repo, read:org, read:user"
	return &fakeGitHub{
		login:  login,
		scopes: &scopes,
		user: map[string]interface{}{
			"id":        "U_1",
			"login":     login,
			"name":      "The Octocat",
			"url":       "https://github.com/" + login,
			"createdAt": "2011-01-25T18:44:36Z",
			"followers": map[string]interface{}{"totalCount": 3},
		},
		connections:   map[string][]map[string]interface{}{},
		failures:      map[string][]int{},
		graphqlErrors: map[string]string{},
		stalled:       map[string]bool{},
	}
}

var connectionFields = []string{"organizations", "starredRepositories", "repositories", "followers", "following", "gists"}

func (f *fakeGitHub) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", f.serveUser)
	mux.HandleFunc("/graphql", f.serveGraphQL)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (f *fakeGitHub) serveUser(w http.ResponseWriter, r *http.Request) {
	if f.unauthorized {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
		return
	}
	if f.scopes != nil {
		w.Header().Set("X-OAuth-Scopes", *f.scopes)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"login": f.login})
}

func (f *fakeGitHub) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	field := ""
	for _, name := range connectionFields {
		if strings.Contains(req.Query, name+"(") {
			field = name
			break
		}
	}

	f.mu.Lock()
	f.queries = append(f.queries, req.Query)
	f.variables = append(f.variables, req.Variables)
	var status int
	if codes := f.failures[field]; len(codes) > 0 {
		status = codes[0]
		f.failures[field] = codes[1:]
	}
	gqlErr, hasGQLErr := f.graphqlErrors[field]
	delete(f.graphqlErrors, field)
	stalled := f.stalled[field]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(f.delay):
		}
	}

	if f.unauthorized {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hasGQLErr {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":   nil,
			"errors": []map[string]interface{}{{"message": gqlErr}},
		})
		return
	}

	if field == "" {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"user": f.user},
		})
		return
	}

	items := f.connections[field]
	first := int(req.Variables["pageSize"].(float64))
	start := 0
	if c, ok := req.Variables["cursor"].(string); ok {
		start, _ = strconv.Atoi(c)
	}
	if stalled {
		start = 0
	}
	end := start + first
	if end > len(items) {
		end = len(items)
	}
	endCursor, hasNextPage := strconv.Itoa(end), end < len(items)
	if stalled {
		endCursor, hasNextPage = "stuck", true
	}

	listKey := "nodes"
	if field == "starredRepositories" {
		listKey = "edges"
	}
	page := items[start:end]
	if page == nil {
		page = []map[string]interface{}{}
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				field: map[string]interface{}{
					"pageInfo": map[string]interface{}{
						"endCursor":   endCursor,
						"hasNextPage": hasNextPage,
					},
					listKey: page,
				},
			},
		},
	})
}

func (f *fakeGitHub) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func newTestCollector(t *testing.T, f *fakeGitHub, pageSize int) Collector {
	t.Helper()
	return newTestCollectorWith(t, f, func(o *Options) { o.PageSize = pageSize })
}

func newTestCollectorWith(t *testing.T, f *fakeGitHub, configure func(*Options)) Collector {
	t.Helper()
	server := f.serve(t)
	opts := Options{
		Token:      "test-token",
		GraphQLURL: server.URL + "/graphql",
		RESTURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	if configure != nil {
		configure(&opts)
	}
	coll, err := NewGitHubCollector(opts)
	if err != nil {
		t.Fatalf("NewGitHubCollector() failed: %v", err)
	}
	return coll
}

func repoNode(i int) map[string]interface{} {
	return map[string]interface{}{
		"id":              "R_" + strconv.Itoa(i),
		"name":            "repo" + strconv.Itoa(i),
		"nameWithOwner":   "octocat/repo" + strconv.Itoa(i),
		"url":             "https://github.com/octocat/repo" + strconv.Itoa(i),
		"visibility":      "PUBLIC",
		"stargazerCount":  i,
		"createdAt":       "2020-01-01T00:00:00Z",
		"updatedAt":       "2024-01-01T00:00:00Z",
		"pushedAt":        nil,
		"primaryLanguage": map[string]interface{}{"name": "Go"},
		"owner":           map[string]interface{}{"login": "octocat"},
		"issues":          map[string]interface{}{"totalCount": 2},
	}
}

func userNodes(prefix string, n int) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		login := prefix + strconv.Itoa(i)
		out = append(out, map[string]interface{}{
			"id":    "U_" + login,
			"login": login,
			"url":   "https://github.com/" + login,
		})
	}
	return out
}
