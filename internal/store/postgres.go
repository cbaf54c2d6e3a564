package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetnav/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema when missing. Dev helper; production runs
// a proper migration tool.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    status TEXT NOT NULL,
    routes JSONB,
    total_distance INT NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS plans_tenant_idx ON plans (tenant_id, created_at);
CREATE TABLE IF NOT EXISTS subscriptions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    url TEXT NOT NULL,
    events JSONB NOT NULL,
    secret TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS webhook_deliveries (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    subscription_id TEXT NOT NULL DEFAULT '',
    event_type TEXT NOT NULL,
    url TEXT NOT NULL,
    secret TEXT NOT NULL DEFAULT '',
    payload BYTEA,
    status TEXT NOT NULL DEFAULT 'pending',
    attempts INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_error TEXT NOT NULL DEFAULT '',
    response_code INT NOT NULL DEFAULT 0,
    latency_ms INT NOT NULL DEFAULT 0,
    delivered_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS deliveries_due_idx ON webhook_deliveries (status, next_attempt_at);
`)
	return err
}

func (p *Postgres) CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.CreatedAt == "" {
		plan.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	routes, err := json.Marshal(plan.Routes)
	if err != nil {
		return model.Plan{}, err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO plans (id, tenant_id, status, routes, total_distance, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		plan.ID, plan.TenantID, plan.Status, routes, plan.TotalDistance, plan.Error, plan.CreatedAt)
	if err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

func (p *Postgres) UpdatePlan(ctx context.Context, tenantID string, plan model.Plan) error {
	routes, err := json.Marshal(plan.Routes)
	if err != nil {
		return err
	}
	var completed any
	if plan.CompletedAt != "" {
		completed = plan.CompletedAt
	}
	res, err := p.db.ExecContext(ctx, `
UPDATE plans SET status=$1, routes=$2, total_distance=$3, error=$4, completed_at=$5
WHERE id=$6 AND tenant_id=$7`,
		plan.Status, routes, plan.TotalDistance, plan.Error, completed, plan.ID, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetPlan(ctx context.Context, tenantID, id string) (model.Plan, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT id, tenant_id, status, routes, total_distance, error,
       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
       coalesce(to_char(completed_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '')
FROM plans WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	return scanPlan(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (model.Plan, error) {
	var plan model.Plan
	var routes []byte
	err := row.Scan(&plan.ID, &plan.TenantID, &plan.Status, &routes,
		&plan.TotalDistance, &plan.Error, &plan.CreatedAt, &plan.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	if len(routes) > 0 {
		if err := json.Unmarshal(routes, &plan.Routes); err != nil {
			return model.Plan{}, err
		}
	}
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, tenant_id, status, routes, total_distance, error,
       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
       coalesce(to_char(completed_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '')
FROM plans WHERE tenant_id=$1 AND ($2 = '' OR id > $2)
ORDER BY id LIMIT $3`, tenantID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Plan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, plan)
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{
		ID:       uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return model.Subscription{}, err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.TenantID, sub.URL, events, sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT id, tenant_id, url, events, secret FROM subscriptions
WHERE tenant_id=$1 AND events @> to_jsonb(ARRAY[$2::text])`, tenantID, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.TenantID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, tenant_id, url, events, secret FROM subscriptions
WHERE tenant_id=$1 AND ($2 = '' OR id > $2) ORDER BY id LIMIT $3`, tenantID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, tenantID, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts
FROM webhook_deliveries
WHERE status='pending' AND next_attempt_at <= now()
ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType,
			&d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx, `
UPDATE webhook_deliveries
SET status='delivered', attempts=attempts+1, last_error=$1, response_code=$2, latency_ms=$3, delivered_at=now()
WHERE id=$4`, lastError, responseCode, latencyMs, id)
		return err
	}
	next := time.Now()
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx, `
UPDATE webhook_deliveries
SET attempts=attempts+1, last_error=$1, response_code=$2, latency_ms=$3, next_attempt_at=$4
WHERE id=$5`, lastError, responseCode, latencyMs, next, id)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `
UPDATE webhook_deliveries
SET status='failed', attempts=attempts+1, last_error=$1, response_code=$2, latency_ms=$3
WHERE id=$4`, lastError, responseCode, latencyMs, id)
	return err
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
