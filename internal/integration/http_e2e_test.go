//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hazards_directory/internal/adapters/http_server"
	"hazards_directory/internal/app"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/importer"
	"hazards_directory/internal/storage"
	mysqlrepo "hazards_directory/internal/storage/mysql"
)

const seedCSV = "State,County,Service Category,Provider Name,Primary Category,Address,Phone,Website,Rating,ReviewCount,PlaceId,Description\n" +
	"FL,Miami-Dade,Mold,Coastal Mold Pros,Mold remediation service,\"10 Bay Rd, Miami, FL 33101\",305-555-0100,https://coastal.example,4.8,120,pl-1,\n" +
	"FL,Miami-Dade,Mold,Dade Air Quality,Environmental consultant,\"22 Palm Ave, Miami, FL 33130\",305-555-0101,,4.5,40,pl-2,\n" +
	"FL,Broward,Water,Broward Dry Out,Water damage restoration service,\"5 Main St, Fort Lauderdale, FL\",,,3.9,12,pl-3,\n" +
	",Broward,Pest,No State Pest Control,,\"1 Nowhere\",,,,,pl-4,\n"

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations", "mysql")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err, "read migrations dir %s", dir)

	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	require.NotEmpty(t, files, "no .sql files in %s", dir)
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(b))
		require.NoError(t, err, "exec %s", f)
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=hazards"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hazards?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	require.NoError(t, pool.Retry(func() error {
		var e error
		if db, e = sql.Open("mysql", dsn); e != nil {
			return e
		}
		return db.Ping()
	}))
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// Imports a CSV into a real MySQL, then drives the HTTP API the way the
// site does: browse, detail, top-rated, create and the zip backfill.
func TestHTTP_EndToEnd_Directory(t *testing.T) {
	db := startMySQL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := storage.Instrument("mysql", mysqlrepo.New(db))

	rows, err := importer.Decode(ctx, strings.NewReader(seedCSV))
	require.NoError(t, err)
	rep, err := app.NewImportService(store, nil, 2).Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Read)
	assert.Equal(t, 3, rep.Valid)
	assert.Equal(t, 0, rep.ChunksFailed)

	// re-import is idempotent on place_id
	_, err = app.NewImportService(store, nil, 2).Import(ctx, rows)
	require.NoError(t, err)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Q:       app.NewQueryService(store, nil, 0, app.Options{}),
		C:       app.NewCommandService(store, nil),
		SiteURL: "https://directory.test",
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	getJSON := func(path string, dst any) int {
		t.Helper()
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		if dst != nil && res.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
		}
		return res.StatusCode
	}

	var page app.BrowsePage
	require.Equal(t, http.StatusOK, getJSON("/v1/providers?state=FL&county=Miami-Dade", &page))
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Coastal Mold Pros", page.Items[0].ProviderName) // name asc
	assert.Equal(t, []string{"FL"}, page.States)

	var detail struct {
		Provider domain.Provider `json:"provider"`
	}
	require.Equal(t, http.StatusOK, getJSON("/v1/providers/"+page.Items[0].ID, &detail))
	assert.Equal(t, "pl-1", *detail.Provider.PlaceID)
	assert.Equal(t, http.StatusNotFound, getJSON("/v1/providers/does-not-exist", nil))

	var top struct {
		Items []domain.Provider `json:"items"`
	}
	require.Equal(t, http.StatusOK, getJSON("/v1/top-rated?category=mold&state=FL", &top))
	require.Len(t, top.Items, 2)
	assert.Equal(t, "Coastal Mold Pros", top.Items[0].ProviderName)

	body := []byte(`{"state":"GA","county":"Fulton","provider_name":"Peach Radon","address":"1 Peachtree St, Atlanta, GA 30303","service_category":"radon","place_id":"pl-9"}`)
	res, err := http.Post(ts.URL+"/v1/providers", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res, err = http.Post(ts.URL+"/v1/providers", "application/json", strings.NewReader(`{"state":"GA"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var states struct {
		States []string `json:"states"`
	}
	require.Equal(t, http.StatusOK, getJSON("/v1/states", &states))
	assert.Equal(t, []string{"FL", "GA"}, states.States)

	// addresses ending in a zip get one; "Fort Lauderdale, FL" does not
	brep, err := app.NewZipBackfillService(store, 2, 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, brep.Scanned)
	assert.Equal(t, 3, brep.Matched)
	assert.Equal(t, 3, brep.Updated)

	require.Equal(t, http.StatusOK, getJSON("/v1/providers?zip_code=33101", &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Coastal Mold Pros", page.Items[0].ProviderName)
}
