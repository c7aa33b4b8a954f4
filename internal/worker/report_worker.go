package worker

// report_worker.go
// Processes end-of-session report jobs from QueueSessionReport.
// Renders the closing report PDF and emails it to the configured address.
// SMTP goes through the circuit breaker; exhausted retries land in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cardapio/internal/cashier"
	"cardapio/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxReportAttempts = 3

// SessionReportPayload is the job envelope sent to QueueSessionReport.
// It carries the full closed session so the worker never needs to read
// back mutable state.
type SessionReportPayload struct {
	Session cashier.Session `json:"session"`
	ToEmail string          `json:"to_email"`
}

// ReportWorker renders and delivers the closing report for one session.
type ReportWorker struct {
	mailer         *infra.Mailer
	cb             *infra.Breaker
	rdb            *redis.Client
	pdfStoragePath string
}

func NewReportWorker(mailer *infra.Mailer, cb *infra.Breaker, rdb *redis.Client, pdfStoragePath string) *ReportWorker {
	return &ReportWorker{
		mailer:         mailer,
		cb:             cb,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single session report job:
//  1. Parse SessionReportPayload
//  2. Generate the PDF report
//  3. Email it through the circuit breaker with exponential backoff
//  4. On exhausted retries, move the job to the DLQ
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SessionReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}
	sessionID := payload.Session.ID.String()

	pdfPath, err := infra.GenerateSessionReportPDF(&payload.Session, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("report_worker: PDF generation failed")
		parkJob(ctx, w.rdb, QueueSessionReport, "session_report", raw,
			fmt.Sprintf("pdf generation failed: %v", err), 1)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("session_id", sessionID).Msg("report_worker: PDF generated")

	if payload.ToEmail == "" {
		log.Warn().Str("session_id", sessionID).Msg("report_worker: no report email configured — PDF kept on disk only")
		return
	}

	subject := fmt.Sprintf("Fechamento de caixa — %s", payload.Session.OpenTime.Format("02/01/2006"))
	body := fmt.Sprintf(
		"Relatório de fechamento em anexo.\nOperador: %s\nSaldo esperado: R$ %s",
		payload.Session.Operator,
		payload.Session.CurrentBalance.StringFixed(2),
	)

	sendErr := withRetry(ctx, maxReportAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			err := w.mailer.SendReport(payload.ToEmail, subject, body, pdfPath)
			if err != nil {
				log.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Str("session_id", sessionID).
					Msg("report_worker: send attempt failed")
			}
			return err
		})
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("session_id", sessionID).Msg("report_worker: email failed after all retries")
		parkJob(ctx, w.rdb, QueueSessionReport, "session_report", raw,
			fmt.Sprintf("smtp failed after %d attempts: %v", maxReportAttempts, sendErr), maxReportAttempts)
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("session_id", sessionID).Msg("report_worker: report sent")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
