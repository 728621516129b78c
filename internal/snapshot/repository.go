package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot or wallet was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot represents a stored wallet portfolio snapshot.
type Snapshot struct {
	ID           int             `json:"id"`
	WalletID     int             `json:"walletId"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for wallet snapshots.
type Repository interface {
	Save(ctx context.Context, walletID int, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, address string) (*Snapshot, error)
	GetByDate(ctx context.Context, address string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, address string, limit int) ([]Snapshot, error)
	EnsureWallet(ctx context.Context, address, label string) (int, error)
	ListWallets(ctx context.Context) ([]TrackedWallet, error)
}

// TrackedWallet is a wallet registered for periodic snapshotting.
type TrackedWallet struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
	Label   string `json:"label"`
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, walletID int, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallet_snapshots (wallet_id, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (wallet_id, snapshot_date)
		 DO UPDATE SET data = $3::jsonb`,
		walletID, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, address string) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT ws.id, ws.wallet_id, ws.snapshot_date, ws.data, ws.created_at
		 FROM wallet_snapshots ws
		 JOIN tracked_wallets tw ON tw.id = ws.wallet_id
		 WHERE tw.address = $1
		 ORDER BY ws.snapshot_date DESC
		 LIMIT 1`, address).Scan(&s.ID, &s.WalletID, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, address string, date time.Time) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT ws.id, ws.wallet_id, ws.snapshot_date, ws.data, ws.created_at
		 FROM wallet_snapshots ws
		 JOIN tracked_wallets tw ON tw.id = ws.wallet_id
		 WHERE tw.address = $1 AND ws.snapshot_date = $2`, address, date).Scan(&s.ID, &s.WalletID, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context, address string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ws.id, ws.wallet_id, ws.snapshot_date, ws.data, ws.created_at
		 FROM wallet_snapshots ws
		 JOIN tracked_wallets tw ON tw.id = ws.wallet_id
		 WHERE tw.address = $1
		 ORDER BY ws.snapshot_date DESC
		 LIMIT $2`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.WalletID, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) EnsureWallet(ctx context.Context, address, label string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tracked_wallets (address, label)
		 VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET label = COALESCE(NULLIF($2, ''), tracked_wallets.label)
		 RETURNING id`,
		address, label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring wallet %s: %w", address, err)
	}
	return id, nil
}

func (r *PgRepository) ListWallets(ctx context.Context) ([]TrackedWallet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, address, label FROM tracked_wallets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing tracked wallets: %w", err)
	}
	defer rows.Close()

	var wallets []TrackedWallet
	for rows.Next() {
		var w TrackedWallet
		if err := rows.Scan(&w.ID, &w.Address, &w.Label); err != nil {
			return nil, fmt.Errorf("scanning tracked wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracked wallets: %w", err)
	}
	return wallets, nil
}
