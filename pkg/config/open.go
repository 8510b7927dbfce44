package config

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/ondemand/pkg/completed"
	"github.com/matzehuels/ondemand/pkg/report"
)

// OpenStore opens the configured completed set for session. The returned
// close function is never nil.
func (c *Config) OpenStore(ctx context.Context, session string) (completed.Set, func() error, error) {
	noop := func() error { return nil }

	switch c.Store.Backend {
	case BackendFile:
		s, err := completed.NewFileSet(c.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendRedis:
		ttl, err := c.Store.ttl()
		if err != nil {
			return nil, noop, err
		}
		s, err := completed.NewRedisSet(ctx, c.Store.RedisURL, session, ttl)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return completed.NewMemory(), noop, nil
}

// OpenSink opens the configured report sinks. It returns nil when no sink
// is configured.
func (c *Config) OpenSink(ctx context.Context) (report.Sink, error) {
	var sinks multiSink
	if c.Report.Dir != "" {
		s, err := report.NewFileSink(c.Report.Dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if c.Report.MongoURI != "" {
		s, err := report.NewMongoSink(ctx, c.Report.MongoURI)
		if err != nil {
			_ = sinks.Close(ctx)
			return nil, err
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

// multiSink saves to every sink and joins their errors.
type multiSink []report.Sink

func (m multiSink) Save(ctx context.Context, rec *report.Record) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Save(ctx, rec))
	}
	return stderrors.Join(errs...)
}

func (m multiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close(ctx))
	}
	return stderrors.Join(errs...)
}
