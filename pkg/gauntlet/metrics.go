package gauntlet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gauntlet",
		Name:      "evaluations_total",
		Help:      "Candidate evaluations started.",
	})

	promotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gauntlet",
		Name:      "promotions_total",
		Help:      "Candidates promoted into the deployment slot.",
	})

	runFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gauntlet",
		Name:      "run_failures_total",
		Help:      "Match tool executions that exited abnormally.",
	})

	parseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gauntlet",
		Name:      "parse_failures_total",
		Help:      "Match outputs with no recognizable score summary.",
	})

	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gauntlet",
		Name:      "cycles_total",
		Help:      "Completed candidate scan cycles.",
	})
)

func recordEvaluation()   { evaluationsTotal.Inc() }
func recordPromotion()    { promotionsTotal.Inc() }
func recordRunFailure()   { runFailuresTotal.Inc() }
func recordParseFailure() { parseFailuresTotal.Inc() }
func recordCycle()        { cyclesTotal.Inc() }
