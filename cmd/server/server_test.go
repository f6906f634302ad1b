package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/internal/platform/config"
	"github.com/mormegil-cz/nklink/pkg/testutil"
)

const capekBody = `{"results":{"bindings":[
	{"entity":{"type":"uri","value":"http://www.wikidata.org/entity/Q155855"},
	 "entityLabel":{"type":"literal","value":"Karel Čapek"},
	 "entityDescription":{"type":"literal","value":"český spisovatel"},
	 "linkWp_cs":{"type":"uri","value":"https://cs.wikipedia.org/wiki/Karel_%C4%8Capek"},
	 "isni":{"type":"literal","value":"0000 0001 2128 0292"}},
	{"entity":{"type":"uri","value":"http://www.wikidata.org/entity/Q155855"},
	 "isni":{"type":"literal","value":"0000 0001 2128 0292"}}
]}}`

func testConfig(endpoint, backend string) *config.Config {
	cfg := config.Default()
	cfg.Upstream.Endpoint = endpoint
	cfg.Upstream.RatePerSecond = 0
	cfg.Cache.Backend = backend
	return &cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *app) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	a, err := newApp(context.Background(), cfg, log, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return newRouter(cfg, a, log, reg), a
}

func TestResolveEndToEnd(t *testing.T) {
	testutil.Given(t, "a memory cache and a live endpoint", func(t *testing.T) {
		upstream := testutil.NewSPARQLServer(t, http.StatusOK, capekBody)
		router, _ := newTestRouter(t, testConfig(upstream.URL, config.CacheBackendMemory))

		testutil.When(t, "the same autid is requested twice", func(t *testing.T) {
			first := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/?autid=jk01021023&format=json"))
			second := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/link.php?autid=jk01021023&format=json"))

			testutil.Then(t, "the endpoint is queried once and both bodies match", func(t *testing.T) {
				testutil.AssertStatusOK(t, first)
				testutil.AssertCacheable(t, first)
				assert.Equal(t, 1, upstream.Calls())
				assert.Equal(t, first.Body.String(), second.Body.String())
				assert.JSONEq(t, `{
					"label":"Karel Čapek",
					"description":"český spisovatel",
					"links":{
						"wikidata":[{"ident":"Q155855","url":"https://www.wikidata.org/wiki/Q155855"}],
						"wikipedia":[{"ident":"Karel Čapek","url":"https://cs.wikipedia.org/wiki/Karel_%C4%8Capek"}],
						"isni":[{"ident":"0000 0001 2128 0292","url":"https://isni.oclc.org/xslt/DB=1.2//CMD?ACT=SRCH&IKT=8006&TRM=ISN%3A0000+0001+2128+0292"}]
					}
				}`, first.Body.String())
			})
		})

		testutil.When(t, "purge is requested", func(t *testing.T) {
			before := upstream.Calls()
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/?autid=jk01021023&format=json&action=purge"))

			testutil.Then(t, "the endpoint is queried again", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Equal(t, before+1, upstream.Calls())
			})
		})
	})

	testutil.Given(t, "a failing endpoint", func(t *testing.T) {
		upstream := testutil.NewSPARQLServer(t, http.StatusServiceUnavailable, "down")
		router, _ := newTestRouter(t, testConfig(upstream.URL, config.CacheBackendMemory))

		testutil.Then(t, "failures are not cached", func(t *testing.T) {
			for range 2 {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/?autid=jk01&format=json"))
				testutil.AssertStatus(t, rr, http.StatusBadGateway)
				assert.Contains(t, rr.Body.String(), "Error received from WQS: 503")
			}
			assert.Equal(t, 2, upstream.Calls())
		})
	})
}

func TestUnreachableRedisFallsBackToNoop(t *testing.T) {
	upstream := testutil.NewSPARQLServer(t, http.StatusOK, capekBody)
	cfg := testConfig(upstream.URL, config.CacheBackendRedis)
	cfg.Cache.RedisURL = "redis://127.0.0.1:1/0"
	cfg.Cache.RedisDialTimeout = config.Duration(100 * time.Millisecond)

	router, a := newTestRouter(t, cfg)
	assert.Nil(t, a.health)

	for range 2 {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/?autid=jk01&format=json"))
		testutil.AssertStatusOK(t, rr)
	}
	assert.Equal(t, 2, upstream.Calls())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)
}

func TestHealthAndMetrics(t *testing.T) {
	upstream := testutil.NewSPARQLServer(t, http.StatusOK, capekBody)
	router, _ := newTestRouter(t, testConfig(upstream.URL, config.CacheBackendBadger))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "ok\n", rr.Body.String())

	testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/?autid=jk01&format=json"))
	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.Contains(t, rr.Body.String(), "nklink_resolutions_total")
	assert.Contains(t, rr.Body.String(), "nklink_http_request_duration_seconds")
}

func TestResolveParams(t *testing.T) {
	p, err := resolveParams("redirect", "", "orcid")
	require.NoError(t, err)
	assert.Equal(t, models.DatabaseORCID, p.Target)

	_, err = resolveParams("jsonp", "9x", "")
	assert.Error(t, err)

	_, err = resolveParams("yaml", "", "")
	assert.Error(t, err)
}

func TestWriteResolved(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResolved(&buf, http.StatusFound, "https://orcid.org/X", nil))
	assert.Equal(t, "302 https://orcid.org/X\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResolved(&buf, http.StatusOK, "", []byte("{}")))
	assert.Equal(t, "{}\n", buf.String())
}
