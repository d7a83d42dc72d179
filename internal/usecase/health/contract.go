package health

import "context"

// Pinger checks availability of one dependency (ISP: satisfied by every store and backend).
type Pinger interface {
	Ping(ctx context.Context) error
}
