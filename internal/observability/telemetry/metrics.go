package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	WorkflowRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_workflow_runs_total",
		Help: "Total de execuções do assistente por ponto de entrada",
	}, []string{"entry", "status"})

	WorkflowStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_workflow_step_duration_seconds",
		Help:    "Duração de cada etapa do fluxo de agendamento",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	ClientLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_client_lookup_total",
		Help: "Resultados da busca aproximada de clientes",
	}, []string{"result"})

	EventsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_calendar_events_created_total",
		Help: "Total de eventos de agenda criados pelo assistente",
	})

	// Métricas de infraestrutura
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_provider_requests_total",
		Help: "Total de chamadas aos provedores de IA",
	}, []string{"provider", "status"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crm_database_latency_seconds",
		Help:    "Latência de queries no banco",
		Buckets: prometheus.DefBuckets,
	})
)
