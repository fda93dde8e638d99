package handlers

import (
	"net/http"

	creditsjob "github.com/shiftmatch/backend/internal/jobs/credits"
	httperrors "github.com/shiftmatch/backend/internal/transport/http/errors"
)

// JobsHandler exposes manual triggers for the replenishment passes. Mounted
// on the internal router only; the passes are idempotent, so a re-trigger
// behind the scheduler is harmless.
type JobsHandler struct {
	job *creditsjob.Job
}

func NewJobsHandler(job *creditsjob.Job) *JobsHandler {
	return &JobsHandler{job: job}
}

func (h *JobsHandler) DailyReset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func() error { return h.job.RunDailyReset(r.Context()) })
}

func (h *JobsHandler) MonthlyGrant(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func() error { return h.job.RunMonthlyGrant(r.Context()) })
}

func (h *JobsHandler) run(w http.ResponseWriter, _ *http.Request, trigger func() error) {
	if h.job == nil {
		writeInternal(w, "JOBS_UNAVAILABLE", "credit jobs are unavailable")
		return
	}

	if err := trigger(); err != nil {
		writeInternal(w, "JOB_FAILED", "replenishment job failed")
		return
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
