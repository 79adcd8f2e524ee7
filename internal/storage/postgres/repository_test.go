//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

var (
	testPool *pgxpool.Pool
	tc       testcontainers.Container
	testLog  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	user := "postgres"
	pass := "postgres"
	db := "postgres"

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       db,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, mappedPort.Port(), db)

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("pgxpool.New:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := testPool.Ping(ctx); err != nil {
		fmt.Println("pool.Ping:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := Migrate(ctx, testPool); err != nil {
		fmt.Println("Migrate:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE verifications, incidents, user_settings, location_checks`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func newIncident(user string, at time.Time) *domain.Incident {
	notes := "two lanes blocked"
	return &domain.Incident{
		UserID:     user,
		Type:       domain.IncidentAccident,
		Latitude:   13.91,
		Longitude:  -60.979,
		Media:      domain.NewMedia("https://cdn.example.com/clip.mp4"),
		Notes:      &notes,
		ReportedAt: at,
		Active:     true,
	}
}

func vote(user string, id uuid.UUID, action domain.VerificationAction) *domain.Verification {
	return &domain.Verification{ID: uuid.New(), IncidentID: id, UserID: user, Action: action, Timestamp: time.Now().UTC()}
}

func transition(action domain.VerificationAction) lifecycle.Transition {
	return lifecycle.NewEngine(lifecycle.DefaultDismissThreshold).Transition(action)
}

func TestIncidentRepo_CreateGetRoundTrip(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLog)
	inc := newIncident("alice", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := repo.Create(context.Background(), inc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inc.ID == uuid.Nil {
		t.Fatalf("expected ID set")
	}

	got, err := repo.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Latitude != inc.Latitude || got.Longitude != inc.Longitude {
		t.Fatalf("lat/lng mismatch got=(%v,%v)", got.Latitude, got.Longitude)
	}
	if !got.Media.IsVideo() || got.Media.URI != inc.Media.URI {
		t.Fatalf("media mismatch: %+v", got.Media)
	}
	if got.Notes == nil || *got.Notes != *inc.Notes || got.LocationName != nil {
		t.Fatalf("optional fields mismatch: notes=%v name=%v", got.Notes, got.LocationName)
	}
	if !got.ReportedAt.Equal(inc.ReportedAt) || !got.Active {
		t.Fatalf("unexpected row: %+v", got)
	}

	_, err = repo.Get(context.Background(), uuid.New())
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestIncidentRepo_Listings(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLog)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repo.Create(context.Background(), newIncident("alice", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	inactive := newIncident("bob", base.Add(time.Hour))
	inactive.Active = false
	if err := repo.Create(context.Background(), inactive); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}

	active, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 active, got %d", len(active))
	}
	if active[0].ReportedAt.Before(active[1].ReportedAt) {
		t.Fatalf("expected DESC order by reported_at")
	}

	bobs, err := repo.ListByReporter(context.Background(), "bob")
	if err != nil {
		t.Fatalf("ListByReporter: %v", err)
	}
	if len(bobs) != 1 || bobs[0].ID != inactive.ID {
		t.Fatalf("reporter history must include inactive incidents, got %d", len(bobs))
	}

	page, total, err := repo.List(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 4 || len(page) != 1 {
		t.Fatalf("expected total=4 len=1 got total=%d len=%d", total, len(page))
	}
}

func TestVerificationLedger_ThresholdAndDuplicate(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLog)
	ledger := NewVerificationLedger(testPool, testLog)
	ctx := context.Background()

	inc := newIncident("reporter", time.Now().UTC())
	if err := repo.Create(ctx, inc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i, user := range []string{"u1", "u2", "u3"} {
		updated, err := ledger.Record(ctx, vote(user, inc.ID, domain.ActionDismiss), transition(domain.ActionDismiss))
		if err != nil {
			t.Fatalf("Record %s: %v", user, err)
		}
		if updated.DismissedCount != i+1 || updated.Active != (i < 2) {
			t.Fatalf("after %d dismissals: %+v", i+1, updated)
		}
	}

	if _, err := ledger.Record(ctx, vote("u1", inc.ID, domain.ActionConfirm), transition(domain.ActionConfirm)); !errors.Is(err, e.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	updated, err := ledger.Record(ctx, vote("u4", inc.ID, domain.ActionConfirm), transition(domain.ActionConfirm))
	if err != nil {
		t.Fatalf("Record confirm: %v", err)
	}
	if updated.VerifiedCount != 1 || updated.Active {
		t.Fatalf("confirm must not reactivate: %+v", updated)
	}

	exists, err := ledger.Exists(ctx, "u4", inc.ID)
	if err != nil || !exists {
		t.Fatalf("Exists: %v %v", exists, err)
	}

	if _, err := ledger.Record(ctx, vote("u5", uuid.New(), domain.ActionConfirm), transition(domain.ActionConfirm)); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerificationLedger_ConcurrentVotesNoLostUpdates(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLog)
	ledger := NewVerificationLedger(testPool, testLog)
	ctx := context.Background()

	inc := newIncident("reporter", time.Now().UTC())
	if err := repo.Create(ctx, inc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.Record(ctx, vote(fmt.Sprintf("voter-%d", i), inc.ID, domain.ActionConfirm), transition(domain.ActionConfirm))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := repo.Get(ctx, inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.VerifiedCount != voters {
		t.Fatalf("lost update: verified_count=%d want %d", got.VerifiedCount, voters)
	}
}

func TestSettingsRepo_DefaultsAndMerge(t *testing.T) {
	truncateAll(t)

	repo := NewSettingsRepo(testPool, testLog)
	ctx := context.Background()

	got, err := repo.GetOrCreate(ctx, domain.DefaultSettings("u1"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got != domain.DefaultSettings("u1") {
		t.Fatalf("expected defaults, got %+v", got)
	}

	off := false
	dist := 800
	updated, err := repo.Update(ctx, domain.SettingsPatch{VibrationEnabled: &off, AlertDistanceMeters: &dist}, domain.DefaultSettings("u1"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.VibrationEnabled || !updated.SirenEnabled || updated.AlertDistanceMeters != 800 {
		t.Fatalf("unexpected merge: %+v", updated)
	}

	again, err := repo.GetOrCreate(ctx, domain.DefaultSettings("u1"))
	if err != nil || again != updated {
		t.Fatalf("stored settings must survive GetOrCreate: %+v %v", again, err)
	}
}

func TestLocationCheckRepo_Counts(t *testing.T) {
	truncateAll(t)

	repo := NewLocationCheckRepo(testPool, testLog)
	ctx := context.Background()

	for _, user := range []string{"u1", "u1", "u2"} {
		if err := repo.SaveCheck(ctx, &domain.LocationCheck{UserID: user, Lat: 1, Lng: 1}); err != nil {
			t.Fatalf("SaveCheck: %v", err)
		}
	}

	users, err := repo.CountUniqueUsers(ctx, 60)
	if err != nil || users != 2 {
		t.Fatalf("CountUniqueUsers=%d err=%v", users, err)
	}
	total, err := repo.CountTotalChecks(ctx, 60)
	if err != nil || total != 3 {
		t.Fatalf("CountTotalChecks=%d err=%v", total, err)
	}

	if _, err := repo.CountTotalChecks(ctx, 0); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
