// Package jobs defines the background tasks run by the worker over asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskSummaryRecompute recomputes one month of one site.
	TaskSummaryRecompute = "summary:recompute"
	// TaskSummaryRecomputeOpen recomputes the current month of every active site.
	TaskSummaryRecomputeOpen = "summary:recompute-open"
	// TaskAssignBarcodes assigns barcodes to products that have none.
	TaskAssignBarcodes = "catalog:assign-barcodes"
)

// recomputeUniqueTTL collapses bursts of recompute requests for the same month.
const recomputeUniqueTTL = 30 * time.Second

// SummaryRecomputePayload identifies the month to recompute.
type SummaryRecomputePayload struct {
	TenantID tenant.ID `json:"tenant_id"`
	Year     int       `json:"year"`
	Month    int       `json:"month"`
}

// AssignBarcodesPayload scopes a bulk barcode assignment.
type AssignBarcodesPayload struct {
	TenantID tenant.ID `json:"tenant_id"`
	Limit    int       `json:"limit,omitempty"`
}

// NewSummaryRecomputeTask builds a de-duplicated recompute task.
func NewSummaryRecomputeTask(tn tenant.ID, p finance.Period) (*asynq.Task, error) {
	body, err := json.Marshal(SummaryRecomputePayload{TenantID: tn, Year: p.Year, Month: int(p.Month)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryRecompute, body,
		asynq.Queue(QueueDefault),
		asynq.Unique(recomputeUniqueTTL),
		asynq.MaxRetry(5),
	), nil
}

// NewSummaryRecomputeOpenTask builds the periodic sweep task.
func NewSummaryRecomputeOpenTask() *asynq.Task {
	return asynq.NewTask(TaskSummaryRecomputeOpen, nil, asynq.Queue(QueueDefault))
}

// NewAssignBarcodesTask builds a bulk barcode task for one site.
func NewAssignBarcodesTask(tn tenant.ID, limit int) (*asynq.Task, error) {
	body, err := json.Marshal(AssignBarcodesPayload{TenantID: tn, Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignBarcodes, body, asynq.Queue(QueueDefault)), nil
}

func decodePayload(t *asynq.Task, dst any) error {
	if err := json.Unmarshal(t.Payload(), dst); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
