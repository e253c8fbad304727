package supervisor

import "context"

// Pool is a start/stop worker pool.
type Pool interface {
	Start()
	Stop()
}

// PoolService ties a worker pool's lifetime to the tree.
type PoolService struct {
	pool Pool
}

// NewPoolService wraps pool.
func NewPoolService(pool Pool) *PoolService {
	return &PoolService{pool: pool}
}

// Serve implements suture.Service.
func (p *PoolService) Serve(ctx context.Context) error {
	p.pool.Start()
	<-ctx.Done()
	p.pool.Stop()
	return ctx.Err()
}

func (p *PoolService) String() string {
	return "retry-pool"
}
