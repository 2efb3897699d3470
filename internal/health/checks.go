package health

import (
	"context"
	"errors"
)

// Pinger is the database probe dependency. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a Checker that pings the PostgreSQL pool. The service is
// not ready to accept orders until the store answers.
func Database(p Pinger) Checker {
	return Checker{
		Name: "database",
		Check: func(ctx context.Context) error {
			if p == nil {
				return errors.New("database pool not initialised")
			}
			return p.Ping(ctx)
		},
	}
}

// Providers returns a Checker that verifies both external providers were
// constructed. It does not call them: a provider round-trip per readiness
// probe would burn quota and add noise to provider-side rate limits.
func Providers(sttReady, llmReady bool) Checker {
	return Checker{
		Name: "providers",
		Check: func(context.Context) error {
			if !sttReady {
				return errors.New("stt provider not configured")
			}
			if !llmReady {
				return errors.New("llm provider not configured")
			}
			return nil
		},
	}
}
