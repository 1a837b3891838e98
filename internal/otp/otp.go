// Package otp issues and checks one-time phone verification codes kept in
// Redis, so pending codes survive restarts and are shared across instances.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gkash/gkash_api/internal/notification"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6
	// MaxAttempts is how many wrong guesses burn a code.
	MaxAttempts = 5

	keyPrefix = "otp:v1:"
)

// Gate sends codes to phones and checks them.
type Gate struct {
	client   *redis.Client
	notifier notification.Notifier
	ttl      time.Duration
	logger   *slog.Logger
	generate func() (string, error)
}

// NewGate builds a Redis-backed OTP gate.
func NewGate(client *redis.Client, notifier notification.Notifier, ttl time.Duration, logger *slog.Logger) *Gate {
	return &Gate{client: client, notifier: notifier, ttl: ttl, logger: logger, generate: randomCode}
}

func codeKey(phone string) string     { return keyPrefix + phone }
func attemptsKey(phone string) string { return keyPrefix + phone + ":attempts" }

// Send stores a fresh code for phone, replacing any previous one, and
// delivers it through the notifier.
func (g *Gate) Send(ctx context.Context, phone string) error {
	code, err := g.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(phone), code, g.ttl)
		pipe.Del(ctx, attemptsKey(phone))
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	msg := notification.Message{
		Kind:        notification.KindPhoneOTP,
		Destination: phone,
		Body:        fmt.Sprintf("Your GKash verification code is %s. It expires in %d minutes.", code, int(g.ttl.Minutes())),
	}
	if err := g.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver otp: %w", err)
	}
	g.logger.Info("otp sent", slog.String("phone", notification.Mask(phone)))
	return nil
}

// Check reports whether code is the outstanding code for phone. On a match
// commit runs first and the code is consumed only if it succeeds; a commit
// error is returned as is and leaves the code usable. After MaxAttempts
// misses the code is burned.
func (g *Gate) Check(ctx context.Context, phone, code string, commit func() error) (bool, error) {
	stored, err := g.client.Get(ctx, codeKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load otp: %w", err)
	}

	attempts, err := g.client.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return false, fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts == 1 {
		_ = g.client.Expire(ctx, attemptsKey(phone), g.ttl).Err()
	}
	if attempts > MaxAttempts {
		g.burn(ctx, phone)
		g.logger.Warn("otp burned after too many attempts", slog.String("phone", notification.Mask(phone)))
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	if commit != nil {
		if err := commit(); err != nil {
			_ = g.client.Decr(ctx, attemptsKey(phone)).Err()
			return false, err
		}
	}
	g.burn(ctx, phone)
	return true, nil
}

func (g *Gate) burn(ctx context.Context, phone string) {
	if err := g.client.Del(ctx, codeKey(phone), attemptsKey(phone)).Err(); err != nil {
		g.logger.Warn("otp cleanup failed", slog.Any("error", err))
	}
}

func randomCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
