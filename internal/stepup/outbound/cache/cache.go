package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const globalSettingKey = "stepup:global_setting"

// Cache holds the short-lived copy of the global OTP setting so hot
// resolution paths do not hit Postgres on every request.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("stepup.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) GetGlobalSetting(ctx context.Context) (_ *entity.GlobalSetting, err error) {
	ctx, span := c.startSpan(ctx, "GetGlobalSetting")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, globalSettingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var gs entity.GlobalSetting
	if err = json.Unmarshal(raw, &gs); err != nil {
		return nil, err
	}

	return &gs, nil
}

func (c *Cache) SetGlobalSetting(ctx context.Context, gs entity.GlobalSetting, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SetGlobalSetting")
	defer func() { c.endSpan(span, err) }()

	raw, err := json.Marshal(gs)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, globalSettingKey, raw, ttl).Err()
}

func (c *Cache) DeleteGlobalSetting(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteGlobalSetting")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, globalSettingKey).Err()
}
