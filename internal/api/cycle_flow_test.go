package api

import (
	"net/http"
	"testing"
)

func TestCycleFlowTogglesLocksAndPersists(t *testing.T) {
	app, handler, _ := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		response, body := doRequest(t, app, http.MethodPost, "/api/cycle/toggle/"+date, "", authed(cookie))
		expectStatus(t, response, body, http.StatusOK)
	}
	response, body := doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-01-03", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)

	toggled := transitionResponse{}
	decodeJSON(t, body, &toggled)
	if !toggled.Applied || len(toggled.Cycle.MarkedDates) != 2 {
		t.Fatalf("expected two marked dates after untoggling, got %+v", toggled.Cycle.MarkedDates)
	}
	if toggled.Cycle.Prediction != nil {
		t.Fatal("expected no prediction before any lock")
	}

	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/lock", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)

	locked := transitionResponse{}
	decodeJSON(t, body, &locked)
	if !locked.Applied || locked.Cycle.State != "locked" || len(locked.Cycle.MarkedDates) != 0 {
		t.Fatalf("unexpected lock response %+v", locked)
	}
	if locked.Cycle.Prediction == nil || locked.Cycle.Prediction.Anchor != "2024-01-02" {
		t.Fatalf("expected anchor 2024-01-02, got %+v", locked.Cycle.Prediction)
	}
	if locked.Cycle.Prediction.Predicted.Start != "2024-01-29" || locked.Cycle.Prediction.Predicted.End != "2024-01-31" {
		t.Fatalf("unexpected predicted window %+v", locked.Cycle.Prediction.Predicted)
	}

	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-01-10", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	ignored := transitionResponse{}
	decodeJSON(t, body, &ignored)
	if ignored.Applied || len(ignored.Cycle.MarkedDates) != 0 {
		t.Fatalf("expected toggle to be ignored while locked, got %+v", ignored)
	}

	if failed := handler.FlushPending(); failed != 0 {
		t.Fatalf("expected flush to succeed, got %d failures", failed)
	}
	user, err := handler.Repositories().Users.FindByNormalizedEmail("owner@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	record, found, err := handler.Repositories().CycleRecords.FindByUserID(user.ID)
	if err != nil || !found {
		t.Fatalf("expected persisted record, found=%v err=%v", found, err)
	}
	if len(record.LockedDates) != 2 || record.LockedDates[0] != "2024-01-01" || record.LockedDates[1] != "2024-01-02" {
		t.Fatalf("unexpected persisted locked dates %v", record.LockedDates)
	}

	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/new-period", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	started := transitionResponse{}
	decodeJSON(t, body, &started)
	if !started.Applied || started.Cycle.State != "editing" {
		t.Fatalf("expected editing after new period, got %+v", started)
	}
}

func TestLockWithoutSelectionIsNotApplied(t *testing.T) {
	app, _, _ := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	response, body := doRequest(t, app, http.MethodPost, "/api/cycle/lock", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)

	result := transitionResponse{}
	decodeJSON(t, body, &result)
	if result.Applied || result.Cycle.State != "editing" {
		t.Fatalf("expected lock to be a no-op, got %+v", result)
	}
}

func TestToggleRejectsInvalidDate(t *testing.T) {
	app, _, _ := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	response, body := doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-02-30", "", authed(cookie))
	expectStatus(t, response, body, http.StatusBadRequest)
}

func TestCycleSettingsValidateAndPersist(t *testing.T) {
	app, handler, _ := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	response, body := doRequest(t, app, http.MethodGet, "/api/cycle", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	initial := cycleView{}
	decodeJSON(t, body, &initial)
	if initial.HasSetup || initial.Config.CycleLength != 28 || initial.Config.PeriodLength != 5 {
		t.Fatalf("expected first-time defaults, got %+v", initial)
	}

	response, body = doRequest(t, app, http.MethodPost, "/api/settings/cycle", `{"cycle_length":40,"period_length":5}`, authed(cookie))
	expectStatus(t, response, body, http.StatusBadRequest)
	response, body = doRequest(t, app, http.MethodPost, "/api/settings/cycle", `{"cycle_length":28,"period_length":11}`, authed(cookie))
	expectStatus(t, response, body, http.StatusBadRequest)

	response, body = doRequest(t, app, http.MethodPost, "/api/settings/cycle", `{"cycle_length":30,"period_length":6}`, authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	updated := transitionResponse{}
	decodeJSON(t, body, &updated)
	if !updated.Cycle.HasSetup || updated.Cycle.Config.CycleLength != 30 || updated.Cycle.Config.PeriodLength != 6 {
		t.Fatalf("unexpected settings response %+v", updated.Cycle)
	}

	handler.FlushPending()
	user, err := handler.Repositories().Users.FindByNormalizedEmail("owner@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	record, found, err := handler.Repositories().CycleRecords.FindByUserID(user.ID)
	if err != nil || !found || record.CycleLength != 30 || !record.HasSetup {
		t.Fatalf("unexpected persisted settings %+v found=%v err=%v", record, found, err)
	}
}

func TestSaveFailureSurfacesNotice(t *testing.T) {
	app, handler, database := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	if err := database.Exec("DROP TABLE cycle_records").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-01-01", "", authed(cookie))
	response, body := doRequest(t, app, http.MethodPost, "/api/cycle/lock", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)

	if failed := handler.FlushPending(); failed != 1 {
		t.Fatalf("expected one failed save, got %d", failed)
	}

	response, body = doRequest(t, app, http.MethodGet, "/api/cycle", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	view := cycleView{}
	decodeJSON(t, body, &view)
	if view.SaveNotice == "" {
		t.Fatal("expected save notice after failed save")
	}
	if view.State != "locked" || len(view.LockedDates) != 1 {
		t.Fatalf("expected optimistic state kept, got %+v", view)
	}
}

func TestResetHistoryWhileServingDropsCachedSession(t *testing.T) {
	app, handler, _ := newTestApp(t)
	cookie := registerAndExtractAuthCookie(t, app, "owner@example.com")

	response, body := doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-01-01", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/lock", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	if failed := handler.FlushPending(); failed != 0 {
		t.Fatalf("expected flush to succeed, got %d failures", failed)
	}

	user, err := handler.Repositories().Users.FindByNormalizedEmail("owner@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if err := handler.Repositories().CycleRecords.ResetHistory(user.ID); err != nil {
		t.Fatalf("reset history: %v", err)
	}

	response, body = doRequest(t, app, http.MethodGet, "/api/cycle", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	current := cycleView{}
	decodeJSON(t, body, &current)
	if current.Prediction != nil || len(current.LockedDates) != 0 {
		t.Fatalf("expected reset cycle without history, got %+v", current)
	}

	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/toggle/2024-02-01", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	response, body = doRequest(t, app, http.MethodPost, "/api/cycle/lock", "", authed(cookie))
	expectStatus(t, response, body, http.StatusOK)
	if failed := handler.FlushPending(); failed != 0 {
		t.Fatalf("expected flush to succeed, got %d failures", failed)
	}

	record, found, err := handler.Repositories().CycleRecords.FindByUserID(user.ID)
	if err != nil || !found {
		t.Fatalf("expected persisted record, found=%v err=%v", found, err)
	}
	if len(record.LockedDates) != 1 || record.LockedDates[0] != "2024-02-01" {
		t.Fatalf("expected only the post-reset day stored, got %v", record.LockedDates)
	}
}
