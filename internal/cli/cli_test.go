package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexPage = `<html><body>
<a class="list-group-item agendaitem" href="/party.p/1">One</a>
<a class="list-group-item agendaitem" href="/party.p/2">Two</a>
</body></html>`

const detailPage = `<html><body><div id="eventinfo">
<div class="titlewithnav">%s</div>
<meta itemprop="startDate" content="2019-10-17T22:00:00+02:00">
<meta itemprop="endDate" content="2019-10-18T06:00:00+02:00">
<div itemprop="offers">Presale: 12,50</div>
</div></body></html>`

// newEnv isolates a CLI run: temp working dir, temp data dir and a fake site
func newEnv(t *testing.T, pages map[string]string) string {
	t.Helper()
	chdir(t, t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	dataDir := t.TempDir()
	t.Setenv("ADE_STORE_BACKEND", "fs")
	t.Setenv("ADE_STORE_DATA_DIR", dataDir)
	t.Setenv("ADE_HARVEST_INDEX_URL", server.URL+"/events/{year}")
	t.Setenv("ADE_HARVEST_BASE_URL", server.URL)
	t.Setenv("ADE_HARVEST_FETCHER", "http")
	t.Setenv("ADE_LOG_LEVEL", "error")
	return dataDir
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestHarvestNormalizeList(t *testing.T) {
	dataDir := newEnv(t, map[string]string{
		"/events/2019": indexPage,
		"/party.p/1":   fmt.Sprintf(detailPage, "Awakenings ADE"),
		"/party.p/2":   fmt.Sprintf(detailPage, "Dekmantel"),
	})

	code, stdout, stderr := execute(t, "harvest", "--year", "2019")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Harvested edition 2019: 2 of 2 events")

	_, err := os.Stat(filepath.Join(dataDir, "ade_event_data", "ade_event_data_raw", "ade_events_2019.csv"))
	require.NoError(t, err)

	code, stdout, stderr = execute(t, "normalize", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)

	var out OutputResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "normalize", out.Command)
	assert.NotEmpty(t, out.RunID)
	require.NotNil(t, out.Normalize)
	assert.Equal(t, 2, out.Normalize.RowsWritten)
	require.Len(t, out.Normalize.Partitions, 1)
	assert.Equal(t, "2019", out.Normalize.Partitions[0].Edition)

	code, stdout, stderr = execute(t, "list", "--stage", "clean")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "ade_event_data/ade_event_data_clean/edition=2019/part-00000.parquet")
	assert.Contains(t, stdout, "ade_event_data/ade_event_data_clean/_SUCCESS")
}

func TestHarvestSkippedPages(t *testing.T) {
	newEnv(t, map[string]string{
		"/events/2019": indexPage,
		"/party.p/1":   fmt.Sprintf(detailPage, "Awakenings"),
		"/party.p/2":   "<html><body>gone</body></html>",
	})

	code, _, stderr := execute(t, "harvest", "--year", "2019")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "malformed event page")

	code, stdout, stderr := execute(t, "harvest", "--year", "2019", "--on-error", "skip")
	assert.Equal(t, ExitSkipped, code)
	assert.Contains(t, stdout, "Harvested edition 2019: 1 of 2 events")
	assert.Contains(t, stdout, "/party.p/2")
	assert.Contains(t, stderr, "skipped 1 event pages")
}

func TestCommandValidation(t *testing.T) {
	newEnv(t, map[string]string{})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing year", []string{"harvest"}, `required flag(s) "year" not set`},
		{"bad year", []string{"harvest", "--year=-1"}, "--year must be a positive year"},
		{"bad format", []string{"normalize", "--format", "xml"}, "invalid format"},
		{"bad stage", []string{"list", "--stage", "staging"}, "invalid stage"},
		{"bad sort", []string{"list", "--sort", "date"}, "invalid sort order"},
		{"bad on-error", []string{"harvest", "--year", "2019", "--on-error", "retry"}, "harvest.on_error"},
		{"index unreachable", []string{"harvest", "--year", "2019"}, "fetching index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestListEmptyStage(t *testing.T) {
	newEnv(t, map[string]string{})

	code, stdout, _ := execute(t, "list", "--stage", "raw")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "No objects in the raw stage."))
}

func TestSortObjects(t *testing.T) {
	objects := []ObjectInfo{
		{Key: "b", Size: 10},
		{Key: "a", Size: 10},
		{Key: "c", Size: 30},
	}

	sortObjects(objects, SortBySize)
	assert.Equal(t, []string{"c", "a", "b"}, keysOf(objects))

	sortObjects(objects, SortByKey)
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(objects))
}

func keysOf(objects []ObjectInfo) []string {
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestWriteOutputUnknownFormat(t *testing.T) {
	err := WriteOutput(&bytes.Buffer{}, &OutputResult{}, OutputFormat("yaml"))
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
