package trajopt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kitlog "github.com/go-kit/log"
)

func TestCooperativeRun(t *testing.T) {
	var yields []int
	coop := Cooperative{
		Engine:     newTestEngine(t, gaConfig()),
		YieldEvery: 2,
		Yield: func(p Progress) bool {
			yields = append(yields, p.Generation)
			return true
		},
	}
	best, err := coop.Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(yields) != 2 || yields[0] != 2 || yields[1] != 4 {
		t.Fatalf("unexpected yields at generations %v", yields)
	}
	if coop.Engine.State() != Complete || coop.Engine.Generation() != 5 || !best.Evaluated() {
		t.Fatalf("engine %s at generation %d", coop.Engine.State(), coop.Engine.Generation())
	}
	// Same seed, same result as a batch run.
	batch, err := newTestEngine(t, gaConfig()).Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Genes != best.Genes || batch.Fitness != best.Fitness {
		t.Fatalf("cooperative best %s differs from batch best %s", best, batch)
	}
}

func TestCooperativeStop(t *testing.T) {
	var buf bytes.Buffer
	yields := 0
	coop := Cooperative{
		Engine:     newTestEngine(t, gaConfig()),
		YieldEvery: 1,
		Yield: func(p Progress) bool {
			yields++
			return yields < 3
		},
		Logger: kitlog.NewLogfmtLogger(&buf),
	}
	best, err := coop.Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if coop.Engine.State() != Stopped || coop.Engine.Generation() != 3 || !best.Evaluated() {
		t.Fatalf("engine %s at generation %d", coop.Engine.State(), coop.Engine.Generation())
	}
	if !strings.Contains(buf.String(), "yield declined") {
		t.Fatalf("stop was not logged: %s", buf.String())
	}
}
