package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

func TestGameMetricsCounts(t *testing.T) {
	m := New()

	m.GameCreated()
	m.GameCreated()
	m.GameFinished(entities.StatusCashedOut, 300)
	m.GameFinished(entities.StatusFail, 0)
	m.HelpUsed(entities.HelpAudience)

	if got := testutil.ToFloat64(m.gamesCreated); got != 2 {
		t.Errorf("games created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.gamesFinished.WithLabelValues("money")); got != 1 {
		t.Errorf("cashed out = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.prizesPaid); got != 300 {
		t.Errorf("prizes paid = %v, want 300", got)
	}
	if got := testutil.ToFloat64(m.helpsUsed.WithLabelValues("audience_help")); got != 1 {
		t.Errorf("audience helps = %v, want 1", got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.GameCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "millionaire_games_created_total 1") {
		t.Fatalf("metrics body missing counter:\n%s", rec.Body.String())
	}
}
