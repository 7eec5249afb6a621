package trajopt

import (
	"context"

	kitlog "github.com/go-kit/log"
)

// Cooperative drives an Engine one generation at a time, handing control back to Yield every YieldEvery
// generations. It suits hosts which must stay responsive while the optimization runs.
type Cooperative struct {
	Engine     *Engine
	YieldEvery int
	// Yield receives the latest progress; returning false stops the run.
	Yield  func(Progress) bool
	Logger kitlog.Logger
}

// Run runs up to the provided number of generations and returns the best-ever chromosome.
func (c *Cooperative) Run(ctx context.Context, generations int) (Chromosome, error) {
	logger := c.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	every := c.YieldEvery
	if every <= 0 {
		every = 1
	}
	c.Engine.until = c.Engine.Generation() + generations
	if err := c.Engine.Initialize(ctx); err != nil {
		return c.Engine.Best(), err
	}
	for done := 0; done < generations; done++ {
		if err := ctx.Err(); err != nil {
			c.Engine.Stop()
			return c.Engine.Best(), err
		}
		if err := c.Engine.Step(ctx); err != nil {
			return c.Engine.Best(), err
		}
		if (done+1)%every != 0 || c.Yield == nil {
			continue
		}
		if !c.Yield(c.Engine.snapshot(false)) {
			logger.Log("level", "notice", "subsys", "ga", "status", "yield declined", "gen", c.Engine.Generation())
			c.Engine.Stop()
			return c.Engine.Best(), nil
		}
	}
	c.Engine.Complete()
	return c.Engine.Best(), nil
}
