package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"pretest-quiz-service/internal/app"
	"pretest-quiz-service/internal/clock"
	"pretest-quiz-service/internal/domain"
	"pretest-quiz-service/internal/infra/memory"
	pgstore "pretest-quiz-service/internal/infra/postgres"
	pgmigrations "pretest-quiz-service/internal/infra/postgres/migrations"
	infraredis "pretest-quiz-service/internal/infra/redis"
	"pretest-quiz-service/internal/submission"
	transport "pretest-quiz-service/internal/transport/http"
)

func TestCompletedAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	collector := pgstore.NewSubmissionRepository(pool)
	server := httptest.NewServer(transport.NewRouter(transport.RouterConfig{Collector: collector}))
	defer server.Close()

	questions := infraredis.NewQuestionRepository(redisClient, pgstore.NewQuestionLoader(pool), 5*time.Minute)
	stores := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	now := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	sched := clock.NewManual(now)
	client := submission.NewClient(server.URL, submission.WithClock(sched.Now))
	service := app.NewQuizService(stores, questions, client,
		app.WithScheduler(sched),
		app.WithDispatch(func(f func()) { f() }),
	)

	session, count, err := service.StartAttempt(ctx, "profile-1", domain.GradeMiddle2, "")
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected seeded 6 questions, got %d", count)
	}
	m, err := service.Open(ctx, "profile-1", session.ID, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer m.Close()

	seeded := memory.DefaultQuestions()[domain.GradeMiddle2]
	for i, q := range seeded {
		if i == 1 {
			_ = m.Skip()
		} else {
			_ = m.Select(q.CorrectAnswer)
			if err := m.Submit(); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		sched.Advance(300 * time.Millisecond)
		if err := m.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if m.Phase() != app.PhaseCompleted {
		t.Fatalf("expected completed, got %s", m.Phase())
	}

	summary, err := service.Results(ctx, "profile-1", session.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if summary.CorrectAnswers != 5 || summary.EstimatedLevel != app.LevelTop {
		t.Fatalf("unexpected summary %+v", summary)
	}

	backendID := submission.GenerateSessionID(submission.DefaultIdentity().LearnerID, sched.Now())
	n, err := collector.CountAnswers(ctx, backendID)
	if err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 stored answers, got %d", n)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
