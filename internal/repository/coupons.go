package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mintslip-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrCouponNotFound = errors.New("coupon not found")

const couponKeyPrefix = "coupon:"

// CouponRepository reads coupons from Postgres through a Redis cache.
type CouponRepository struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
}

func NewCouponRepository(db *sql.DB, rdb *redis.Client, ttl time.Duration) *CouponRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CouponRepository{db: db, redis: rdb, ttl: ttl}
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func couponKey(code string) string {
	return couponKeyPrefix + code
}

// Find returns the coupon for code whether or not it is still usable.
func (r *CouponRepository) Find(ctx context.Context, code string) (*models.Coupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, ErrCouponNotFound
	}

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, couponKey(code)).Result(); err == nil {
			var c models.Coupon
			if err := json.Unmarshal([]byte(val), &c); err == nil {
				return &c, nil
			}
		}
	}

	var c models.Coupon
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT code, discount_percent, active, expires_at FROM coupons WHERE code = $1`, code,
	).Scan(&c.Code, &c.DiscountPercent, &c.Active, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCouponNotFound, code)
		}
		return nil, fmt.Errorf("query coupon %s: %w", code, err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}

	if r.redis != nil {
		data, _ := json.Marshal(c)
		r.redis.Set(ctx, couponKey(code), data, r.ttl)
	}
	return &c, nil
}

// Upsert writes c and drops its cached copy.
func (r *CouponRepository) Upsert(ctx context.Context, c *models.Coupon) error {
	code := NormalizeCouponCode(c.Code)
	var expiresAt interface{}
	if c.ExpiresAt != nil {
		expiresAt = *c.ExpiresAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (code, discount_percent, active, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET discount_percent = EXCLUDED.discount_percent, active = EXCLUDED.active, expires_at = EXCLUDED.expires_at`,
		code, c.DiscountPercent, c.Active, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert coupon %s: %w", code, err)
	}
	if r.redis != nil {
		r.redis.Del(ctx, couponKey(code))
	}
	return nil
}
