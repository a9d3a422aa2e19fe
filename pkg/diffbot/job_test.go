package diffbot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockTransport records every call so tests can assert on request counts.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Get(ctx context.Context, path string, p Params) ([]byte, error) {
	args := m.Called(path, p)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

func (m *mockTransport) PostForm(ctx context.Context, path string, p Params) ([]byte, error) {
	args := m.Called(path, p)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

const completedListing = `{"jobs":[
	{"name":"job-Z","jobStatus":{"status":7,"message":"Job is in progress."}},
	{"name":"job-A","jobStatus":{"status":9,"message":"Job has completed and no repeat is scheduled."}}
]}`

func listing(status int, msg string) []byte {
	return []byte(`{"jobs":[{"name":"job-A","jobStatus":{"status":` + strconv.Itoa(status) + `,"message":"` + msg + `"}}]}`)
}

func TestFetchJobStatus_MatchesByName(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "bulk", Params{"name": "job-A"}).Return([]byte(completedListing), nil).Once()

	status, err := NewBulkJobOperator(tr, "job-A").FetchJobStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, JobStatus{Status: 9, Message: "Job has completed and no repeat is scheduled."}, status)
	assert.True(t, status.Completed())
	tr.AssertExpectations(t)
}

func TestFetchJobStatus_NotFound(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "crawl", Params{"name": "job-Q"}).Return([]byte(completedListing), nil)

	_, err := NewCrawlJobOperator(tr, "job-Q").FetchJobStatus(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.ErrorIs(t, err, &Error{Kind: KindNotFound})
}

func TestFetchRawData_GuardsNonTerminalStatus(t *testing.T) {
	for _, code := range []int{0, 1, 4, 6, 7, 10} {
		t.Run(JobStatusCode(code).String(), func(t *testing.T) {
			tr := new(mockTransport)
			tr.On("Get", "bulk", Params{"name": "job-A"}).Return(listing(code, "not yet"), nil)

			objs, err := NewBulkJobOperator(tr, "job-A").FetchRawData(context.Background(), FormatJSON)
			require.Error(t, err)
			assert.Nil(t, objs)

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, KindJobStatus, de.Kind)
			assert.Equal(t, JobStatusCode(code), de.Status)
			assert.Equal(t, "not yet", de.Message)

			tr.AssertNumberOfCalls(t, "Get", 1)
			tr.AssertNotCalled(t, "Get", "bulk/data", mock.Anything)
		})
	}
}

func TestFetchRawData_Completed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"type":"article","title":"A"},{"type":"article","title":"B"}]`, 2},
		{"objects envelope", `{"objects":[{"type":"article","title":"A"}]}`, 1},
		{"empty array", `[]`, 0},
		{"empty body", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(mockTransport)
			tr.On("Get", "crawl", Params{"name": "job-A"}).Return(listing(9, "done"), nil).Once()
			tr.On("Get", "crawl/data", Params{"name": "job-A", "format": "json"}).Return([]byte(tt.body), nil).Once()

			objs, err := NewCrawlJobOperator(tr, "job-A").FetchRawData(context.Background(), "")
			require.NoError(t, err)
			assert.NotNil(t, objs)
			assert.Len(t, objs, tt.want)
			tr.AssertExpectations(t)
		})
	}
}

func TestFetchRawData_CSV(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "bulk", mock.Anything).Return(listing(9, "done"), nil)
	tr.On("Get", "bulk/data", Params{"name": "job-A", "format": "csv"}).
		Return([]byte("pageUrl,title\nhttp://a,A\nhttp://b,B\n"), nil)

	objs, err := NewBulkJobOperator(tr, "job-A").FetchRawData(context.Background(), FormatCSV)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, Object{"pageUrl": "http://b", "title": "B"}, objs[1])
}

func TestLazyFetchExtractors(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "bulk", mock.Anything).Return(listing(9, "done"), nil)
	tr.On("Get", "bulk/data", mock.Anything).Return([]byte(`[
		{"type":"article","pageUrl":"http://a","title":"A"},
		{"type":"product","pageUrl":"http://b","title":"B"}
	]`), nil)

	seq := NewBulkJobOperator(tr, "job-A").LazyFetchExtractors(context.Background())
	tr.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)

	var types []ResultType
	for ext, err := range seq {
		require.NoError(t, err)
		types = append(types, ext.Type())
	}
	assert.Equal(t, []ResultType{TypeArticle, TypeProduct}, types)
	tr.AssertNumberOfCalls(t, "Get", 2)
}

func TestLazyFetchExtractors_StatusFailureYieldsOnlyError(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "crawl", mock.Anything).Return(listing(7, "running"), nil)

	var exts, errs int
	for ext, err := range NewCrawlJobOperator(tr, "job-A").LazyFetchExtractors(context.Background()) {
		if err != nil {
			errs++
			assert.True(t, IsKind(err, KindJobStatus))
			continue
		}
		if ext != nil {
			exts++
		}
	}
	assert.Equal(t, 0, exts)
	assert.Equal(t, 1, errs)
	tr.AssertNumberOfCalls(t, "Get", 1)
}

func TestLazyFetchExtractors_UnknownTypeStops(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "bulk", mock.Anything).Return(listing(9, "done"), nil)
	tr.On("Get", "bulk/data", mock.Anything).Return([]byte(`[{"type":"article"},{"type":"recipe"},{"type":"video"}]`), nil)

	var got []error
	for _, err := range NewBulkJobOperator(tr, "job-A").LazyFetchExtractors(context.Background()) {
		got = append(got, err)
	}
	require.Len(t, got, 2)
	assert.NoError(t, got[0])
	assert.True(t, IsKind(got[1], KindUnknownExtractorType))
}

func TestLazyFetchExtractors_EarlyBreak(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "bulk", mock.Anything).Return(listing(9, "done"), nil)
	tr.On("Get", "bulk/data", mock.Anything).Return([]byte(`[{"type":"article"},{"type":"video"}]`), nil)

	n := 0
	for range NewBulkJobOperator(tr, "job-A").LazyFetchExtractors(context.Background()) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestControl_Payloads(t *testing.T) {
	tests := []struct {
		name string
		call func(*JobOperator, context.Context) error
		want Params
	}{
		{"pause", (*JobOperator).PauseJob, Params{"name": "job-A", "pause": "1"}},
		{"resume", (*JobOperator).ResumeJob, Params{"name": "job-A", "pause": "0"}},
		{"restart", (*JobOperator).RestartJob, Params{"name": "job-A", "restart": "1"}},
		{"delete", (*JobOperator).DeleteJob, Params{"name": "job-A", "delete": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(mockTransport)
			tr.On("Get", "crawl", tt.want).Return([]byte(`{"response":"ok"}`), nil)

			op := NewCrawlJobOperator(tr, "job-A")
			require.NoError(t, tt.call(op, context.Background()))
			require.NoError(t, tt.call(op, context.Background()))

			tr.AssertNumberOfCalls(t, "Get", 2)
		})
	}
}

func TestControl_UnknownAction(t *testing.T) {
	tr := new(mockTransport)
	err := NewBulkJobOperator(tr, "job-A").Control(context.Background(), Action("stop"))
	assert.Error(t, err)
	tr.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestStartJob_RequiresTargets(t *testing.T) {
	tr := new(mockTransport)
	_, err := NewBulkJobOperator(tr, "job-A").StartJob(context.Background(), nil, "http://api/v3/article", nil)
	assert.ErrorIs(t, err, ErrNoTargetURLs)
	tr.AssertNotCalled(t, "PostForm", mock.Anything, mock.Anything)
}

func TestStartJob_WireShape(t *testing.T) {
	var method, rawQuery, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		rawQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Write([]byte(`{"response":"Successfully added urls for spidering.","jobs":[{"name":"job-A"}]}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL)
	targets := []string{"http://a", "http://b"}
	apiURL := "http://api/v3/article"

	ack, err := NewBulkJobOperator(tr, "job-A").StartJob(context.Background(), targets, apiURL, BulkArgs{}.Params())
	require.NoError(t, err)
	assert.Contains(t, ack, "jobs")
	assert.Equal(t, http.MethodPost, method)
	assert.Empty(t, rawQuery)

	form, err := url.ParseQuery(body)
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"name":   {"job-A"},
		"urls":   {"http://a http://b"},
		"apiUrl": {"http://api/v3/article"},
		"token":  {"test-token"},
	}, form)
	assert.Contains(t, body, "urls=http%3A%2F%2Fa+http%3A%2F%2Fb")
	assert.Contains(t, body, "apiUrl=http%3A%2F%2Fapi%2Fv3%2Farticle")

	_, err = NewCrawlJobOperator(tr, "job-A").StartJob(context.Background(), targets, apiURL,
		CrawlArgs{MaxHops: Int(2)}.Params())
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, method)
	assert.Empty(t, body)

	q, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	assert.Equal(t, "http://a http://b", q.Get("seeds"))
	assert.Equal(t, "2", q.Get("maxHops"))
	assert.False(t, q.Has("urls"))
	assert.Contains(t, rawQuery, "seeds=http%3A%2F%2Fa+http%3A%2F%2Fb")
}

func TestResponseErrorFromEveryCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "rate limited", "errorCode": 429}`))
	}))
	defer server.Close()

	tr := newTestTransport(server.URL)
	op := NewBulkJobOperator(tr, "job-A")
	ctx := context.Background()

	calls := map[string]func() error{
		"start": func() error {
			_, err := op.StartJob(ctx, []string{"http://a"}, "http://api", nil)
			return err
		},
		"status": func() error { _, err := op.FetchJobStatus(ctx); return err },
		"data":   func() error { _, err := op.FetchRawData(ctx, FormatJSON); return err },
		"lazy": func() error {
			for _, err := range op.LazyFetchExtractors(ctx) {
				return err
			}
			return nil
		},
		"searcher": func() error { _, err := op.FetchCompletedSearcher(ctx); return err },
		"pause":    func() error { return op.PauseJob(ctx) },
		"resume":   func() error { return op.ResumeJob(ctx) },
		"restart":  func() error { return op.RestartJob(ctx) },
		"delete":   func() error { return op.DeleteJob(ctx) },
		"search": func() error {
			_, err := NewSearcher(tr, "job-A").FetchExtractors(ctx, "q", nil)
			return err
		},
		"single": func() error {
			_, err := NewSingleFetcher(tr).FetchArticle(ctx, "http://a", ArticleArgs{})
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, KindResponse, de.Kind)
			assert.Equal(t, 429, de.Code)
			assert.Equal(t, "rate limited", de.Message)
		})
	}
}

func TestFetchCompletedSearcher(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "crawl", mock.Anything).Return(listing(9, "done"), nil).Once()
	tr.On("Get", "search", Params{"col": "job-A", "query": "type:article", "num": "5"}).
		Return([]byte(`{"objects":[{"type":"article","title":"A"},{"type":"image","title":"I"}]}`), nil).Once()

	s, err := NewCrawlJobOperator(tr, "job-A").FetchCompletedSearcher(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-A", s.Job())

	exts, err := s.FetchExtractors(context.Background(), "type:article", SearchArgs{Num: Int(5)}.Params())
	require.NoError(t, err)
	require.Len(t, exts, 2)
	assert.Equal(t, TypeImage, exts[1].Type())
	tr.AssertExpectations(t)
}

func TestFetchCompletedSearcher_NotCompleted(t *testing.T) {
	tr := new(mockTransport)
	tr.On("Get", "crawl", mock.Anything).Return(listing(6, "paused"), nil)

	s, err := NewCrawlJobOperator(tr, "job-A").FetchCompletedSearcher(context.Background())
	assert.Nil(t, s)
	assert.True(t, IsKind(err, KindJobStatus))
}
